package editor

import (
	"net/http"

	"safelens/pkg/response"
)

var (
	ErrSessionNotFound = response.NewError(http.StatusNotFound, "editing session not found")
	ErrRegionNotFound  = response.NewError(http.StatusNotFound, "region not found")
	ErrBlobNotFound    = response.NewError(http.StatusNotFound, "object url not found or already revoked")

	ErrInvalidImage     = response.NewError(http.StatusBadRequest, "uploaded file is not a readable image")
	ErrInvalidFilter    = response.NewError(http.StatusBadRequest, "unknown filter")
	ErrInvalidSide      = response.NewError(http.StatusBadRequest, "unknown compare side")
	ErrEmptyPatch       = response.NewError(http.StatusBadRequest, "patch has no fields")
	ErrNoCategories     = response.NewError(http.StatusBadRequest, "select at least one detection target")
	ErrUnknownGesture   = response.NewError(http.StatusBadRequest, "pointer down must target a region body, its handle or the slider")
	ErrNoDimensions     = response.NewError(http.StatusConflict, "image is still loading, try again once it has loaded")
	ErrNoLayout         = response.NewError(http.StatusConflict, "image has not been laid out yet")
	ErrNotAnalyzed      = response.NewError(http.StatusConflict, "run detection before applying a filter")
	ErrNotProcessed     = response.NewError(http.StatusConflict, "apply a filter before exporting the image")
	ErrInProgress       = response.NewError(http.StatusConflict, "an analysis or edit is already running")
	ErrGestureActive    = response.NewError(http.StatusConflict, "another gesture is in progress")
	ErrNothingToApply   = response.NewError(http.StatusUnprocessableEntity, "nothing to apply, turn on a region or run detection again")
	ErrProRequired      = response.NewError(http.StatusPaymentRequired, "the AI removal filter requires the Pro plan")
	ErrUploadFailed     = response.NewError(http.StatusBadGateway, "image upload failed, check the network and try again")
	ErrDetectFailed     = response.NewError(http.StatusBadGateway, "analysis failed, check the network and try again")
	ErrEditFailed       = response.NewError(http.StatusBadGateway, "saving failed, try again in a moment")
	ErrDownloadFailed   = response.NewError(http.StatusBadGateway, "download failed, try again in a moment")
	ErrShareUnavailable = response.NewError(http.StatusServiceUnavailable, "share links are not configured")
	ErrShareFailed      = response.NewError(http.StatusBadGateway, "creating the share link failed")
)
