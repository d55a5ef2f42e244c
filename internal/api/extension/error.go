package extension

import (
	"net/http"

	"safelens/pkg/response"
)

var (
	ErrClientIDRequired    = response.NewError(http.StatusBadRequest, "client_id is required")
	ErrClientNotConnected  = response.NewError(http.StatusNotFound, "the browser extension is not connected")
	ErrClientDisconnected  = response.NewError(http.StatusBadGateway, "the browser extension disconnected before answering")
	ErrInjectRejected      = response.NewError(http.StatusBadGateway, "the browser extension could not place the image")
	ErrInjectTimeout       = response.NewError(http.StatusGatewayTimeout, "the browser extension did not answer in time")
	ErrInjectFailedToWrite = response.NewError(http.StatusBadGateway, "sending the image to the browser extension failed")
)
