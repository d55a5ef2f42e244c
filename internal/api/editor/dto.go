package editor

import (
	"time"

	"safelens/internal/entity"
	"safelens/pkg/geometry"
	"safelens/pkg/gesture"
	"safelens/pkg/preview"
)

type UploadRequest struct {
	MemberID int64 `form:"member_id" validate:"gte=0"`
}

// ImageLoadRequest is sent once the image element has loaded: the natural
// size plus the first laid-out box.
type ImageLoadRequest struct {
	NaturalWidth  float64 `json:"naturalWidth" validate:"gt=0"`
	NaturalHeight float64 `json:"naturalHeight" validate:"gt=0"`
	ClientWidth   float64 `json:"clientWidth" validate:"gte=0"`
	ClientHeight  float64 `json:"clientHeight" validate:"gte=0"`
	Left          float64 `json:"left"`
	Top           float64 `json:"top"`
}

type LayoutRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

type DetectOptionsRequest struct {
	QR       bool `json:"qr"`
	Personal bool `json:"personal"`
	Location bool `json:"location"`
	Portrait bool `json:"portrait"`
}

type FilterRequest struct {
	Filter string `json:"filter" validate:"required,oneof=BLUR MOSAIC AI"`
}

type MutateRegionRequest struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type PointerRequest struct {
	Events []gesture.PointerEvent `json:"events" validate:"required,min=1,dive"`
}

type CompareRequest struct {
	Position *float64 `json:"position"`
	Side     string   `json:"side" validate:"omitempty,oneof=before after"`
}

type RegionView struct {
	ID             string              `json:"id"`
	Category       string              `json:"category"`
	Label          string              `json:"label"`
	X              float64             `json:"x"`
	Y              float64             `json:"y"`
	Width          float64             `json:"width"`
	Height         float64             `json:"height"`
	IsActive       bool                `json:"isActive"`
	IsManual       bool                `json:"isManual"`
	ServerDetectID *int64              `json:"serverDetectId,omitempty"`
	Placement      geometry.Placement  `json:"placement"`
	Pixels         *geometry.PixelRect `json:"pixels,omitempty"`
	Style          preview.Style       `json:"style,omitempty"`
}

type CompareView struct {
	PreviousURL  string  `json:"previousUrl"`
	CurrentURL   string  `json:"currentUrl"`
	Position     float64 `json:"position"`
	BeforeLoaded bool    `json:"beforeLoaded"`
	AfterLoaded  bool    `json:"afterLoaded"`
	Ready        bool    `json:"ready"`
}

type SessionView struct {
	ID                string               `json:"id"`
	MemberID          int64                `json:"memberId"`
	FileName          string               `json:"fileName"`
	ImageUUID         string               `json:"imageUuid"`
	DisplayedImageURL string               `json:"displayedImageUrl"`
	PreviewURL        string               `json:"previewUrl"`
	Filter            string               `json:"filter"`
	State             string               `json:"state"`
	Analyzed          bool                 `json:"analyzed"`
	Busy              bool                 `json:"busy"`
	CanApply          bool                 `json:"canApply"`
	LastError         string               `json:"lastError,omitempty"`
	Regions           []RegionView         `json:"regions"`
	ActiveRegions     int                  `json:"activeRegions"`
	Natural           *geometry.Dimensions `json:"natural,omitempty"`
	Rendered          *entity.RenderedBox  `json:"rendered,omitempty"`
	Compare           *CompareView         `json:"compare,omitempty"`
	DetectOptions     entity.DetectOptions `json:"detectOptions"`
	ProUnlocked       bool                 `json:"proUnlocked"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

type PointerResponse struct {
	Changes []gesture.Change `json:"changes"`
	Gesture string           `json:"gesture"`
	Session *SessionView     `json:"session"`
}

type DownloadResponse struct {
	FileName string `json:"fileName"`
	BlobURL  string `json:"blobUrl"`
}

type ShareResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
