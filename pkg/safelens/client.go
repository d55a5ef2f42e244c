package safelens

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxErrorBody caps how much of an error response is kept on APIError.
const maxErrorBody = 4 << 10

type IClient interface {
	UploadImage(ctx context.Context, fileName string, data []byte) (*UploadResponse, error)
	RequestDetect(ctx context.Context, req DetectRequest) (*DetectResponse, error)
	RequestEdit(ctx context.Context, req EditRequest) (*EditResponse, error)
	FetchHistory(ctx context.Context, memberID int64) (*HistoryResponse, error)
	FetchHistoryDetail(ctx context.Context, historyID int64) (*HistoryDetailResponse, error)
	FetchImage(ctx context.Context, imageURL string) ([]byte, string, error)
	BuildImageURL(uuid string, kind ImageKind) string
}

type Client struct {
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	log          *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func NewClient(baseURL, imageBaseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadImage sends the raw file as multipart field "file".
// POST /images/upload
func (c *Client) UploadImage(ctx context.Context, fileName string, data []byte) (*UploadResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	var out UploadResponse
	if err := c.do(ctx, http.MethodPost, "/images/upload", writer.FormDataContentType(), body, &out); err != nil {
		return nil, err
	}
	if out.ImageUUID == "" {
		return nil, fmt.Errorf("upload response has no imageUuid")
	}
	return &out, nil
}

// POST /detect
func (c *Client) RequestDetect(ctx context.Context, req DetectRequest) (*DetectResponse, error) {
	var out DetectResponse
	if err := c.doJSON(ctx, http.MethodPost, "/detect", req, &out); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"image_uuid": out.ImageUUID,
		"detections": len(out.Detections),
	}).Debug("detect finished")
	return &out, nil
}

// POST /edit
func (c *Client) RequestEdit(ctx context.Context, req EditRequest) (*EditResponse, error) {
	var out EditResponse
	if err := c.doJSON(ctx, http.MethodPost, "/edit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GET /history/{memberId}
func (c *Client) FetchHistory(ctx context.Context, memberID int64) (*HistoryResponse, error) {
	var out HistoryResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/history/%d", memberID), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GET /history/detail/{historyId}
func (c *Client) FetchHistoryDetail(ctx context.Context, historyID int64) (*HistoryDetailResponse, error) {
	var out HistoryDetailResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/history/detail/%d", historyID), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchImage downloads an image by absolute URL and returns its bytes and
// content type.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported image url scheme: %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &APIError{Method: http.MethodGet, Path: u.Path, StatusCode: resp.StatusCode, Body: truncate(data)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// BuildImageURL is the image host location of an original or edited image.
func (c *Client) BuildImageURL(uuid string, kind ImageKind) string {
	if kind != ImageEdited {
		kind = ImageOriginal
	}
	return fmt.Sprintf("%s/%s/%s.jpg", c.imageBaseURL, kind, uuid)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(payload), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("safelens api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: truncate(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
