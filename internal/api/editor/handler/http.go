package editorHandler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	editorService "safelens/internal/api/editor/service"
	"safelens/internal/middleware"
	"safelens/pkg/utils"
)

type EditorHandler struct {
	log           *logrus.Logger
	validator     *validator.Validate
	middleware    middleware.Middleware
	editorService editorService.IEditorService
	utils         utils.IUtils
	timeout       time.Duration
}

// New builds the editor handler. timeout bounds a whole request and should
// exceed the upstream request timeout.
func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	es editorService.IEditorService,
	utils utils.IUtils,
	timeout time.Duration,
) *EditorHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EditorHandler{
		log:           log,
		validator:     validator,
		middleware:    middleware,
		editorService: es,
		utils:         utils,
		timeout:       timeout,
	}
}

func (h *EditorHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	sessions := srv.Group("/sessions", h.middleware.NewRateLimiter)
	sessions.Post("", h.CreateSession)
	sessions.Get("/:id", h.GetSession)
	sessions.Delete("/:id", h.DiscardSession)

	sessions.Post("/:id/image-load", h.ReportImageLoad)
	sessions.Post("/:id/layout", h.ReportLayout)
	sessions.Put("/:id/options", h.SetDetectOptions)
	sessions.Put("/:id/filter", h.SetFilter)
	sessions.Post("/:id/pro", h.UnlockPro)

	sessions.Post("/:id/detect", h.Detect)
	sessions.Post("/:id/edit", h.Edit)

	sessions.Post("/:id/regions", h.AddManualRegion)
	sessions.Delete("/:id/regions/:rid", h.RemoveManualRegion)
	sessions.Post("/:id/regions/:rid/toggle", h.ToggleRegion)
	sessions.Patch("/:id/regions/:rid", h.MutateRegion)

	sessions.Post("/:id/pointer", h.HandlePointer)
	sessions.Use("/:id/pointer/ws", wsMiddleware)
	sessions.Get("/:id/pointer/ws", websocket.New(h.handlePointerWebSocket))

	sessions.Put("/:id/compare", h.UpdateCompare)
	sessions.Get("/:id/preview", h.RenderPreview)
	sessions.Get("/:id/compare.jpg", h.RenderCompare)
	sessions.Post("/:id/download", h.Download)
	sessions.Post("/:id/share", h.Share)

	srv.Get("/blobs/:id", h.ServeBlob)
}
