package config

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, env Env) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "SafeLens",
			BodyLimit:             50 * 1024 * 1024,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			EnablePrintRoutes:     env.AppEnv != "production" && env.AppEnv != "test",
			DisableStartupMessage: env.AppEnv == "test",
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
		})

	logger.WithField("app_env", env.AppEnv).Debug("Fiber app created")
	return app
}
