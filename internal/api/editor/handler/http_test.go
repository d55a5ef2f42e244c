package editorHandler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
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
	editorRepository "safelens/internal/api/editor/repository"
	editorService "safelens/internal/api/editor/service"
	"safelens/internal/middleware"
	"safelens/pkg/objecturl"
	"safelens/pkg/preview"
	"safelens/pkg/safelens"
	"safelens/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 5), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeAPI stands in for the SafeLens detection/edit service.
func fakeAPI(t *testing.T, img []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/images/upload", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"imageUuid":"img-1"}`))
	})
	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"imageUuid":"img-1","totalDetections":1,"detections":[{"category":"QRBARCODE","x":100,"y":200,"width":300,"height":100,"detectId":5}]}`))
	})
	mux.HandleFunc("/edit", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"historyId":3,"oldUuid":"img-1","newUuid":"img-2","filter":"BLUR","createdAt":"2026-10-01T09:00:00Z"}`))
	})
	mux.HandleFunc("/edited/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) (*fiber.App, []byte) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	img := testPNG(t)
	api := fakeAPI(t, img)

	client := safelens.NewClient(api.URL, api.URL, safelens.WithLogger(logger))
	svc := editorService.NewEditorService(
		logger,
		editorRepository.NewMemory(time.Hour, logger),
		client,
		objecturl.New("/api/v1/blobs"),
		preview.NewRenderer(),
		nil,
		editorService.Config{RequestTimeout: 5 * time.Second},
	)

	mw := middleware.New(logger, middleware.Config{Rate: 1000, Burst: 1000})
	h := New(logger, validator.New(), mw, svc, utils.New(), 10*time.Second)

	app := fiber.New(fiber.Config{StrictRouting: true, CaseSensitive: true})
	app.Use(mw.NewRequestIDMiddleware())
	h.Start(app.Group("/api/v1"))
	return app, img
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func upload(t *testing.T, app *fiber.App, data []byte, contentType string) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="holiday.png"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("member_id", "7"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeView(t *testing.T, raw []byte) editor.SessionView {
	t.Helper()
	var view editor.SessionView
	require.NoError(t, json.Unmarshal(raw, &view), string(raw))
	return view
}

func TestEditorFlow(t *testing.T) {
	app, img := newTestApp(t)

	resp, raw := upload(t, app, img, "image/png")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	view := decodeView(t, raw)
	assert.Equal(t, int64(7), view.MemberID)
	assert.Equal(t, "holiday.png", view.FileName)
	base := "/api/v1/sessions/" + view.ID

	resp, raw = do(t, app, http.MethodPost, base+"/edit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))

	resp, raw = do(t, app, http.MethodPost, base+"/image-load", editor.ImageLoadRequest{
		NaturalWidth: 1000, NaturalHeight: 1000, ClientWidth: 400, ClientHeight: 400,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = do(t, app, http.MethodPut, base+"/options", editor.DetectOptionsRequest{QR: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = do(t, app, http.MethodPost, base+"/detect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	view = decodeView(t, raw)
	require.Len(t, view.Regions, 1)
	region := view.Regions[0]
	assert.Equal(t, "QRBARCODE-0-100-200", region.ID)
	assert.Equal(t, "QR/Barcode", region.Label)
	assert.InDelta(t, 40, region.Placement.Left, 1e-9)

	resp, _ = do(t, app, http.MethodPut, base+"/filter", editor.FilterRequest{Filter: "SEPIA"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPut, base+"/filter", editor.FilterRequest{Filter: "AI"})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	resp, raw = do(t, app, http.MethodPost, base+"/pointer", map[string]interface{}{
		"events": []map[string]interface{}{
			{"type": "down", "target": "body", "regionId": region.ID, "clientX": 50, "clientY": 90},
			{"type": "up", "clientX": 50, "clientY": 90},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var pointer editor.PointerResponse
	require.NoError(t, json.Unmarshal(raw, &pointer))
	assert.False(t, pointer.Session.Regions[0].IsActive)

	resp, raw = do(t, app, http.MethodPost, base+"/edit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(raw))

	resp, raw = do(t, app, http.MethodPost, base+"/regions/"+url.PathEscape(region.ID)+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = do(t, app, http.MethodPost, base+"/edit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	view = decodeView(t, raw)
	assert.Equal(t, "PROCESSED", view.State)
	assert.True(t, strings.HasSuffix(view.DisplayedImageURL, "/edited/img-2.jpg"))
	require.NotNil(t, view.Compare)

	resp, raw = do(t, app, http.MethodGet, base+"/compare.jpg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	resp, raw = do(t, app, http.MethodPost, base+"/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var dl editor.DownloadResponse
	require.NoError(t, json.Unmarshal(raw, &dl))
	assert.Equal(t, "holiday-edited.png", dl.FileName)

	resp, raw = do(t, app, http.MethodGet, dl.BlobURL+"?download=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "holiday-edited.png")
	assert.Equal(t, img, raw)

	resp, _ = do(t, app, http.MethodGet, dl.BlobURL, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "download links are one-shot")

	resp, _ = do(t, app, http.MethodPost, base+"/share", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, view.PreviewURL, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "preview url revoked with the session")
}

func TestCreateSession_RejectsNonImage(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := upload(t, app, []byte("hello"), "text/plain")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "NOT_AN_IMAGE")
}

func TestValidationErrors(t *testing.T) {
	app, img := newTestApp(t)
	_, raw := upload(t, app, img, "image/png")
	base := "/api/v1/sessions/" + decodeView(t, raw).ID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"zero natural size", http.MethodPost, base + "/image-load", editor.ImageLoadRequest{}, 400},
		{"empty pointer batch", http.MethodPost, base + "/pointer", editor.PointerRequest{}, 400},
		{"bad pointer type", http.MethodPost, base + "/pointer", map[string]interface{}{"events": []map[string]string{{"type": "hover"}}}, 400},
		{"bad compare side", http.MethodPut, base + "/compare", map[string]string{"side": "middle"}, 400},
		{"empty patch", http.MethodPatch, base + "/regions/x", map[string]string{}, 400},
		{"unknown session", http.MethodGet, "/api/v1/sessions/missing", nil, 404},
		{"slider before edit", http.MethodPost, base + "/pointer", map[string]interface{}{"events": []map[string]string{{"type": "down", "target": "slider"}}}, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(raw))
		})
	}
}
