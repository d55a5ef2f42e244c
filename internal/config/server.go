package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	editorHandler "safelens/internal/api/editor/handler"
	editorRepository "safelens/internal/api/editor/repository"
	editorService "safelens/internal/api/editor/service"
	extensionHandler "safelens/internal/api/extension/handler"
	extensionService "safelens/internal/api/extension/service"
	historyHandler "safelens/internal/api/history/handler"
	historyService "safelens/internal/api/history/service"
	"safelens/internal/middleware"
	"safelens/pkg/objecturl"
	"safelens/pkg/preview"
	"safelens/pkg/redis"
	"safelens/pkg/s3"
	"safelens/pkg/safelens"
	"safelens/pkg/utils"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	env            Env
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	redisServer    redis.IRedis
	s3Client       s3.ItfS3
	safelensClient safelens.IClient
	blobs          *objecturl.Registry
	editor         editorService.IEditorService
	ctx            context.Context
	cancel         context.CancelFunc
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithEnv(env Env) ServerOption {
	return func(s *Server) error {
		s.env = env
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithRedisServer keeps sessions in redis. Without it sessions live in
// process memory.
func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Config{Rate: s.env.RateLimit, Burst: s.env.RateBurst})
		return nil
	}
}

// WithS3Client enables share links. An unconfigured bucket is not an error;
// sharing is then reported as unavailable.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New(s.env.S3)
		if errors.Is(err, s3.ErrNotConfigured) {
			if s.log != nil {
				s.log.Warn("S3 is not configured, share links are disabled")
			}
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithSafeLensClient(client safelens.IClient) ServerOption {
	return func(s *Server) error {
		s.safelensClient = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if s.safelensClient == nil {
		s.safelensClient = safelens.NewClient(
			s.env.APIBaseURL,
			s.env.ImageBaseURL,
			safelens.WithLogger(s.log),
			safelens.WithHTTPClient(&http.Client{Timeout: 2 * s.env.RequestTimeout}),
		)
	}
	s.blobs = objecturl.New(s.env.BlobPrefix())
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Editor
	var sessionRepo editorRepository.Repository
	if s.redisServer != nil {
		sessionRepo = editorRepository.New(s.redisServer, s.env.SessionTTL, s.log)
	} else {
		s.log.Warn("Redis is not configured, editing sessions are kept in memory")
		sessionRepo = editorRepository.NewMemory(s.env.SessionTTL, s.log)
	}
	editorServices := editorService.NewEditorService(
		s.log,
		sessionRepo,
		s.safelensClient,
		s.blobs,
		preview.NewRenderer(),
		s.s3Client,
		editorService.Config{
			RequestTimeout:  s.env.RequestTimeout,
			DefaultMemberID: s.env.DefaultMemberID,
			ShareTTL:        s.env.ShareTTL,
		},
	)
	editorHandlers := editorHandler.New(s.log, s.validator, s.middleware, editorServices, s.utils, s.env.HandlerTimeout)
	s.editor = editorServices

	// History
	historyServices := historyService.NewHistoryService(s.log, s.safelensClient, s.env.RequestTimeout)
	historyHandlers := historyHandler.New(s.log, s.validator, s.middleware, historyServices, s.env.HandlerTimeout)

	// Extension bridge
	extensionServices := extensionService.NewExtensionService(s.log, s.env.InjectTimeout)
	extensionHandlers := extensionHandler.New(s.log, s.validator, s.middleware, extensionServices, editorServices, s.env.HandlerTimeout)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, editorHandlers, historyHandlers, extensionHandlers)
}

func (s *Server) Run() error {
	if s.blobs != nil {
		go s.blobs.Janitor(s.ctx, s.env.SessionTTL, time.Minute, func(n int) {
			s.log.WithField("revoked", n).Info("Swept expired object urls")
		})
	}
	if s.editor != nil {
		go s.pruneGestures(time.Minute)
	}

	s.mount()

	port := s.env.AppPort
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.cancel != nil {
			s.cancel()
		}
		return err
	}

	return nil
}

func (s *Server) pruneGestures(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.editor.PruneGestures(s.ctx); n > 0 {
				s.log.WithField("pruned", n).Debug("Dropped idle gesture state")
			}
		}
	}
}

// Shutdown stops accepting requests and waits up to timeout for the
// in-flight ones.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.cancel != nil {
		s.cancel()
	}
	err := s.engine.ShutdownWithTimeout(timeout)
	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Server) mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		status := fiber.Map{
			"message":  "Server is Healthy!",
			"sessions": "memory",
			"share":    s.s3Client != nil,
		}
		if s.redisServer != nil {
			status["sessions"] = "redis"
			pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
			defer cancel()
			if err := s.redisServer.Ping(pingCtx); err != nil {
				status["message"] = "Redis is unreachable"
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(status)
			}
		}
		return ctx.JSON(status)
	})
}
