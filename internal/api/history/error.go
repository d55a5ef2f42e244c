package history

import (
	"net/http"

	"safelens/pkg/response"
)

var (
	ErrHistoryNotFound    = response.NewError(http.StatusNotFound, "history item not found")
	ErrInvalidMemberID    = response.NewError(http.StatusBadRequest, "member id must be a positive number")
	ErrInvalidHistoryID   = response.NewError(http.StatusBadRequest, "history id must be a positive number")
	ErrIndexOutOfRange    = response.NewError(http.StatusBadRequest, "history index is outside the filtered list")
	ErrHistoryUnavailable = response.NewError(http.StatusBadGateway, "history could not be loaded, try again in a moment")
)
