package history

import "time"

const (
	FilterAll   = "ALL"
	CategoryAll = "ALL"

	QualityLow  = "low"
	QualityHigh = "high"

	DefaultDownloadName = "safefriends-image.jpg"
)

// ListRequest narrows a member's history. Empty values mean ALL.
type ListRequest struct {
	Filter   string `query:"filter" json:"filter" validate:"omitempty,oneof=ALL AI BLUR MOSAIC"`
	Category string `query:"category" json:"category" validate:"omitempty,oneof=ALL QRBARCODE TEXT LOCATION FACE ETC"`
	Query    string `query:"q" json:"q" validate:"max=200"`
}

// StepRequest moves the lightbox of a filtered history list by one key
// press.
type StepRequest struct {
	ListRequest
	Index int    `json:"index" validate:"gte=0"`
	Key   string `json:"key" validate:"required"`
}

type DetectionView struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	DetectID *int64  `json:"detectId,omitempty"`
}

type ItemView struct {
	HistoryID      int64           `json:"historyId"`
	Title          string          `json:"title"`
	OldUUID        string          `json:"oldUuid"`
	NewUUID        string          `json:"newUuid"`
	Filter         string          `json:"filter"`
	FilterLabel    string          `json:"filterLabel"`
	CreatedAt      time.Time       `json:"createdAt"`
	OriginalURL    string          `json:"originalUrl"`
	ThumbnailURL   string          `json:"thumbnailUrl"`
	PreviewURL     string          `json:"previewUrl"`
	DownloadURL    string          `json:"downloadUrl"`
	DownloadName   string          `json:"downloadName"`
	Detections     []DetectionView `json:"detections"`
	CategoryCounts map[string]int  `json:"categoryCounts"`
}

type ListResponse struct {
	MemberID        int64      `json:"memberId"`
	Nickname        string     `json:"nickname"`
	TotalHistories  int        `json:"totalHistories"`
	TotalDetections int        `json:"totalDetections"`
	AIEdits         int        `json:"aiEdits"`
	Latest          *ItemView  `json:"latest,omitempty"`
	Matched         int        `json:"matched"`
	Items           []ItemView `json:"items"`
}

type StepResponse struct {
	Index int      `json:"index"`
	Total int      `json:"total"`
	Moved bool     `json:"moved"`
	Item  ItemView `json:"item"`
}

type DetailResponse struct {
	HistoryID      int64           `json:"historyId"`
	MemberID       int64           `json:"memberId"`
	Title          string          `json:"title"`
	ImageUUID      string          `json:"imageUuid"`
	OriginalURL    string          `json:"originalUrl"`
	EditedImageURL string          `json:"editedImageUrl"`
	PreviewURL     string          `json:"previewUrl"`
	DownloadURL    string          `json:"downloadUrl"`
	Filter         string          `json:"filter"`
	FilterLabel    string          `json:"filterLabel"`
	CreatedAt      time.Time       `json:"createdAt"`
	Detections     []DetectionView `json:"detections"`
	CategoryCounts map[string]int  `json:"categoryCounts"`
}
