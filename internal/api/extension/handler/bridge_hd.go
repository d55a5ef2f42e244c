package extensionHandler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"

	"safelens/internal/api/extension"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/handlerUtil"
	"safelens/pkg/log"
	websocketPkg "safelens/pkg/websocket"
)

// Inject sends the session's current image to a connected extension.
func (h *ExtensionHandler) Inject(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing inject request")

	var req extension.InjectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	data, contentType, err := h.editorService.ExportImage(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "export_image")
	}

	res, err := h.extensionService.Inject(c, req.ClientID, data, contentType)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "inject_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *ExtensionHandler) Clients(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, extension.ClientsResponse{
		Clients: h.extensionService.Clients(),
	})
}

func (h *ExtensionHandler) handleBridge(c *websocket.Conn) {
	clientID := c.Query("client_id")
	fields := log.Fields{"client_id": clientID}

	unregister, err := h.extensionService.Register(clientID, c)
	if err != nil {
		h.log.WithFields(fields).Warn("Refusing extension without a client id")
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		_ = c.Close()
		return
	}
	defer unregister()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 90 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			break
		}

		var reply websocketPkg.InjectReply
		if err := c.ReadJSON(&reply); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(fields).Warnf("Extension bridge error: %v", err)
			}
			break
		}
		if reply.RequestID == "" {
			continue
		}

		h.extensionService.Deliver(clientID, reply)
	}
}
