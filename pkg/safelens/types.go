package safelens

import (
	"fmt"
	"time"
)

// Region is a box in natural image pixels as the API sends and receives it.
// Detections may carry fractional coordinates; edit payloads are whole
// pixels.
type Region struct {
	Category   string   `json:"category"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	DetectID   *int64   `json:"detectId,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type UploadResponse struct {
	ImageUUID string `json:"imageUuid"`
}

type DetectRequest struct {
	ImageUUID     string   `json:"imageUuid"`
	DetectTargets []string `json:"detectTargets"`
}

type DetectResponse struct {
	ImageUUID       string   `json:"imageUuid"`
	Detections      []Region `json:"detections"`
	TotalDetections int      `json:"totalDetections"`
}

type EditRequest struct {
	ImageUUID string   `json:"imageUuid"`
	MemberID  int64    `json:"memberId"`
	Regions   []Region `json:"regions"`
	Filter    string   `json:"filter"`
}

type EditResponse struct {
	HistoryID     int64     `json:"historyId"`
	NewUUID       string    `json:"newUuid"`
	OldUUID       string    `json:"oldUuid"`
	NewURL        string    `json:"newUrl,omitempty"`
	OldURL        string    `json:"oldUrl,omitempty"`
	Filter        string    `json:"filter"`
	EditedRegions []Region  `json:"editedRegions"`
	CreatedAt     time.Time `json:"createdAt"`
}

type HistoryItem struct {
	HistoryID  int64     `json:"historyId"`
	OldUUID    string    `json:"oldUuid"`
	NewUUID    string    `json:"newUuid"`
	NewURL     string    `json:"newUrl,omitempty"`
	Filter     string    `json:"filter"`
	CreatedAt  time.Time `json:"createdAt"`
	Detections []Region  `json:"detections"`
}

type HistoryResponse struct {
	MemberID       int64         `json:"memberMeId"`
	Nickname       string        `json:"nickname"`
	TotalHistories int           `json:"totalHistories"`
	Histories      []HistoryItem `json:"histories"`
}

type HistoryDetailResponse struct {
	HistoryID      int64     `json:"historyId"`
	MemberID       int64     `json:"memberId"`
	ImageUUID      string    `json:"imageUuid"`
	EditedImageURL string    `json:"editedImageUrl"`
	Filter         string    `json:"filter"`
	CreatedAt      time.Time `json:"createdAt"`
	Detections     []Region  `json:"detections"`
}

type ImageKind string

const (
	ImageOriginal ImageKind = "original"
	ImageEdited   ImageKind = "edited"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("safelens api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
