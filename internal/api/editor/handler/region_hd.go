package editorHandler

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"safelens/internal/api/editor"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/handlerUtil"
	"safelens/pkg/log"
)

func (h *EditorHandler) AddManualRegion(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	view, err := h.editorService.AddManualRegion(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "add_manual_region")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, view)
	}
}

func (h *EditorHandler) RemoveManualRegion(ctx *fiber.Ctx) error {
	return h.regionAction(ctx, "remove_manual_region", h.editorService.RemoveManualRegion)
}

func (h *EditorHandler) ToggleRegion(ctx *fiber.Ctx) error {
	return h.regionAction(ctx, "toggle_region", h.editorService.ToggleRegion)
}

func (h *EditorHandler) MutateRegion(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req editor.MutateRegionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	view, err := h.editorService.MutateRegion(c, ctx.Params("id"), ctx.Params("rid"), req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "mutate_region")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, view)
	}
}

func (h *EditorHandler) regionAction(
	ctx *fiber.Ctx,
	operation string,
	fn func(ctx context.Context, id, regionID string) (*editor.SessionView, error),
) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"operation":  operation,
	}).Debug("Processing region request")

	view, err := fn(c, ctx.Params("id"), ctx.Params("rid"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, view)
	}
}
