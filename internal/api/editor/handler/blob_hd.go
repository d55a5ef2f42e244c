package editorHandler

import (
	"github.com/gofiber/fiber/v2"

	"safelens/pkg/handlerUtil"
	"safelens/pkg/log"
)

// ServeBlob returns the content behind an object URL. With ?download=1 it is
// sent as an attachment and the URL is revoked, like a one-shot save link.
func (h *EditorHandler) ServeBlob(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	id := ctx.Params("id")
	blob, err := h.editorService.ResolveBlob(id)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "resolve_blob")
	}

	ctx.Set(fiber.HeaderContentType, blob.ContentType)
	if ctx.Query("download") == "1" {
		ctx.Attachment(blob.FileName)
		h.editorService.RevokeBlob(id)

		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"blob_id":    blob.ID,
			"file_name":  blob.FileName,
		}).Info("Blob downloaded and revoked")
	}

	return ctx.Status(fiber.StatusOK).Send(blob.Data)
}
