package extensionHandler

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safelens/internal/api/editor"
	editorService "safelens/internal/api/editor/service"
	"safelens/internal/api/extension"
	extensionService "safelens/internal/api/extension/service"
	"safelens/internal/middleware"
	websocketPkg "safelens/pkg/websocket"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fakeEditor only serves ExportImage; the bridge needs nothing else.
type fakeEditor struct {
	editorService.IEditorService
	data []byte
}

func (f fakeEditor) ExportImage(_ context.Context, id string) ([]byte, string, error) {
	if id != "sess-1" {
		return nil, "", editor.ErrSessionNotFound
	}
	return f.data, "image/jpeg", nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newApp(t *testing.T, timeout time.Duration) (*fiber.App, extensionService.IExtensionService) {
	t.Helper()
	logger := quietLogger()

	xs := extensionService.NewExtensionService(logger, timeout)
	mw := middleware.New(logger, middleware.Config{Rate: 1000, Burst: 1000})
	h := New(logger, validator.New(), mw, xs, fakeEditor{data: []byte{0xff, 0xd8, 0xff, 0xe0}}, 5*time.Second)

	app := fiber.New(fiber.Config{StrictRouting: true, CaseSensitive: true, DisableStartupMessage: true})
	app.Use(mw.NewRequestIDMiddleware())
	h.Start(app.Group("/api/v1"))
	return app, xs
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestInjectThroughBridge(t *testing.T) {
	app, xs := newApp(t, 2*time.Second)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	received := make(chan websocketPkg.InjectMessage, 1)
	client, err := websocketPkg.NewBridgeClient(
		"ws://"+ln.Addr().String()+"/api/v1/extension/ws",
		"tab-9",
		func(_ context.Context, msg websocketPkg.InjectMessage) websocketPkg.InjectReply {
			received <- msg
			return websocketPkg.InjectReply{Success: true, Message: "Image injected successfully"}
		},
		quietLogger(),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(xs.Clients()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, body := postJSON(t, app, "/api/v1/sessions/sess-1/inject", extension.InjectRequest{ClientID: "tab-9"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res extension.InjectResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)
	assert.Equal(t, "tab-9", res.ClientID)

	msg := <-received
	assert.Equal(t, res.RequestID, msg.RequestID)
	assert.True(t, strings.HasPrefix(msg.ImageDataURL, "data:image/jpeg;base64,"))

	clientsReq := httptest.NewRequest(http.MethodGet, "/api/v1/extension/clients", nil)
	clientsResp, err := app.Test(clientsReq, -1)
	require.NoError(t, err)
	var clients extension.ClientsResponse
	require.NoError(t, json.NewDecoder(clientsResp.Body).Decode(&clients))
	assert.Equal(t, []string{"tab-9"}, clients.Clients)
}

func TestInjectErrors(t *testing.T) {
	app, _ := newApp(t, time.Second)

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{name: "missing client id", path: "/api/v1/sessions/sess-1/inject", body: map[string]string{}, want: http.StatusBadRequest},
		{name: "unknown session", path: "/api/v1/sessions/other/inject", body: extension.InjectRequest{ClientID: "tab-9"}, want: http.StatusNotFound},
		{name: "extension not connected", path: "/api/v1/sessions/sess-1/inject", body: extension.InjectRequest{ClientID: "tab-9"}, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, app, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(body))
		})
	}
}

func TestBridgeRequiresClientID(t *testing.T) {
	app, _ := newApp(t, time.Second)

	for _, query := range []string{"", "?client_id=", "?client_id=%20%20"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/extension/ws"+query, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", query)
	}
}

func TestBridgeRequiresUpgrade(t *testing.T) {
	app, _ := newApp(t, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/extension/ws?client_id=tab-1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
