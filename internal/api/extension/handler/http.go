package extensionHandler

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	editorService "safelens/internal/api/editor/service"
	"safelens/internal/api/extension"
	extensionService "safelens/internal/api/extension/service"
	"safelens/internal/middleware"
	"safelens/pkg/handlerUtil"
)

type ExtensionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	extensionService extensionService.IExtensionService
	editorService    editorService.IEditorService
	timeout          time.Duration
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	xs extensionService.IExtensionService,
	es editorService.IEditorService,
	timeout time.Duration,
) *ExtensionHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExtensionHandler{
		log:              log,
		validator:        validator,
		middleware:       middleware,
		extensionService: xs,
		editorService:    es,
		timeout:          timeout,
	}
}

func (h *ExtensionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if strings.TrimSpace(c.Query("client_id")) == "" {
			return handlerUtil.New(h.log).Handle(c, h.middleware.GetRequestID(c), extension.ErrClientIDRequired, c.Path(), "extension_connect")
		}
		return c.Next()
	}

	ext := srv.Group("/extension")
	ext.Get("/clients", h.Clients)
	ext.Use("/ws", wsMiddleware)
	ext.Get("/ws", websocket.New(h.handleBridge))

	srv.Post("/sessions/:id/inject", h.Inject)
}
