package historyHandler

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"safelens/internal/api/history"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/handlerUtil"
	"safelens/pkg/log"
)

func (h *HistoryHandler) List(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing history list request")

	memberID, err := ctx.ParamsInt("memberId")
	if err != nil || memberID <= 0 {
		return errHandler.Handle(ctx, requestID, history.ErrInvalidMemberID, ctx.Path(), "parse_member_id")
	}

	var req history.ListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.historyService.List(c, int64(memberID), req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *HistoryHandler) Step(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	memberID, err := ctx.ParamsInt("memberId")
	if err != nil || memberID <= 0 {
		return errHandler.Handle(ctx, requestID, history.ErrInvalidMemberID, ctx.Path(), "parse_member_id")
	}

	var req history.StepRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.historyService.Step(c, int64(memberID), req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "step_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *HistoryHandler) Detail(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	historyID, err := ctx.ParamsInt("historyId")
	if err != nil || historyID <= 0 {
		return errHandler.Handle(ctx, requestID, history.ErrInvalidHistoryID, ctx.Path(), "parse_history_id")
	}

	res, err := h.historyService.Detail(c, int64(historyID))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "history_detail")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
