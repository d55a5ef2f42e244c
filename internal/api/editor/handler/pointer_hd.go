package editorHandler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"

	"safelens/internal/api/editor"
	"safelens/internal/middleware"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/gesture"
	"safelens/pkg/handlerUtil"
	"safelens/pkg/log"
	"safelens/pkg/response"
)

func (h *EditorHandler) HandlePointer(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req editor.PointerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	resp, err := h.editorService.HandlePointer(c, ctx.Params("id"), req.Events)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "handle_pointer")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

type pointerError struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// handlePointerWebSocket streams pointer events one JSON message at a time
// and answers each with the resulting changes. A dropped connection cancels
// any gesture in flight.
func (h *EditorHandler) handlePointerWebSocket(c *websocket.Conn) {
	sessionID := c.Params("id")
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	fields := log.Fields{"request_id": requestID, "session_id": sessionID}
	h.log.WithFields(fields).Info("Pointer stream connected")
	defer h.log.WithFields(fields).Info("Pointer stream disconnected")
	defer h.editorService.ReleasePointer(sessionID)

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			break
		}

		var ev gesture.PointerEvent
		if err := c.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(fields).Warnf("Pointer stream error: %v", err)
			}
			break
		}

		if err := h.validator.Struct(ev); err != nil {
			if writeErr := c.WriteJSON(pointerError{Error: err.Error(), Code: fiber.StatusBadRequest}); writeErr != nil {
				break
			}
			continue
		}

		ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), h.timeout)
		resp, err := h.editorService.HandlePointer(ctx, sessionID, []gesture.PointerEvent{ev})
		cancel()

		var reply interface{} = resp
		if err != nil {
			reply = wsError(err)
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			break
		}
		if err := c.WriteJSON(reply); err != nil {
			h.log.WithFields(fields).Errorf("Error writing pointer reply: %v", err)
			break
		}
	}
}

func wsError(err error) pointerError {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		return pointerError{Error: respErr.Error(), Code: respErr.Code}
	}
	return pointerError{Error: "An unexpected error occurred", Code: fiber.StatusInternalServerError}
}
