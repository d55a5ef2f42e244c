package handlerUtil

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"safelens/pkg/log"
	"safelens/pkg/response"
	"safelens/pkg/safelens"
	fileUtils "safelens/pkg/utils"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		entry := h.logger.WithFields(fields).WithField("code", respErr.Code)
		if respErr.Code >= fiber.StatusInternalServerError {
			entry.Error("Operation failed with error response")
		} else {
			entry.Warn("Operation failed with error response")
		}
		return c.Status(respErr.Code).JSON(ErrorResponse{Error: respErr.Error()})
	}

	// Upload validation
	if errors.Is(err, fileUtils.ErrNoFile) {
		h.logger.WithFields(fields).Warn("No file uploaded")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "No file uploaded",
			Code:  "NO_FILE",
		})
	}

	if errors.Is(err, fileUtils.ErrFileTooLarge) {
		h.logger.WithFields(fields).Warn("Uploaded file too large")
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{
			Error: "File size exceeds limit",
			Code:  "FILE_TOO_LARGE",
		})
	}

	if errors.Is(err, fileUtils.ErrNotAnImage) {
		h.logger.WithFields(fields).Warn("Uploaded file is not an image")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Uploaded file is not an image",
			Code:  "NOT_AN_IMAGE",
		})
	}

	// Upstream API
	var apiErr *safelens.APIError
	if errors.As(err, &apiErr) {
		h.logger.WithFields(fields).WithField("upstream_status", apiErr.StatusCode).Error("SafeLens API error")
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error: "The SafeLens service returned an error",
			Code:  "UPSTREAM_ERROR",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.WithFields(fields).Warn("Upstream call timed out")
		return c.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse{
			Error: "The request timed out",
			Code:  "TIMEOUT",
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(fields).Warn("Request rejected")
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
	}

	traceID := uuid.NewString()
	h.logger.WithFields(fields).WithField("trace_id", traceID).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
