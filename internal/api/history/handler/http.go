package historyHandler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	historyService "safelens/internal/api/history/service"
	"safelens/internal/middleware"
)

type HistoryHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	historyService historyService.IHistoryService
	timeout        time.Duration
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	hs historyService.IHistoryService,
	timeout time.Duration,
) *HistoryHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HistoryHandler{
		log:            log,
		validator:      validator,
		middleware:     middleware,
		historyService: hs,
		timeout:        timeout,
	}
}

func (h *HistoryHandler) Start(srv fiber.Router) {
	histories := srv.Group("/history", h.middleware.NewRateLimiter)
	histories.Get("/detail/:historyId", h.Detail)
	histories.Get("/:memberId", h.List)
	histories.Post("/:memberId/step", h.Step)
}
