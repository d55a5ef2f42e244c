package entity

import (
	"time"

	"safelens/pkg/geometry"
)

type PipelineState uint8

const (
	StateIdle PipelineState = iota
	StateAnalyzing
	StateAnalyzed
	StateProcessing
	StateProcessed
	StateError
)

var PipelineStateMap = map[PipelineState]string{
	StateIdle:       "IDLE",
	StateAnalyzing:  "ANALYZING",
	StateAnalyzed:   "ANALYZED",
	StateProcessing: "PROCESSING",
	StateProcessed:  "PROCESSED",
	StateError:      "ERROR",
}

func (s PipelineState) String() string {
	return PipelineStateMap[s]
}

func (s PipelineState) Value() uint8 {
	return uint8(s)
}

// Busy reports whether a network call is outstanding for the session.
func (s PipelineState) Busy() bool {
	return s == StateAnalyzing || s == StateProcessing
}

// Analyzed reports whether the region list and filter controls are shown.
func (s PipelineState) Analyzed() bool {
	return s == StateAnalyzed || s == StateProcessing || s == StateProcessed
}

// RenderedBox is the laid-out image box in client coordinates.
type RenderedBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b *RenderedBox) Dimensions() *geometry.Dimensions {
	if b == nil {
		return nil
	}
	return &geometry.Dimensions{Width: b.Width, Height: b.Height}
}

type CompareSnapshot struct {
	PreviousURL string `json:"previousUrl"`
	CurrentURL  string `json:"currentUrl"`
}

type EditSession struct {
	ID                string               `json:"id"`
	MemberID          int64                `json:"memberId"`
	FileName          string               `json:"fileName"`
	ActiveImageHandle string               `json:"activeImageHandle"`
	DisplayedImageURL string               `json:"displayedImageUrl"`
	PreviewURL        string               `json:"previewUrl"`
	Filter            Filter               `json:"filter"`
	State             PipelineState        `json:"state"`
	ResumeState       PipelineState        `json:"resumeState"`
	LastError         string               `json:"lastError,omitempty"`
	Regions           []DetectionRegion    `json:"regions"`
	Natural           *geometry.Dimensions `json:"natural,omitempty"`
	Rendered          *RenderedBox         `json:"rendered,omitempty"`
	CompareSnapshot   *CompareSnapshot     `json:"compareSnapshot,omitempty"`
	DownloadURL       string               `json:"downloadUrl,omitempty"`
	SliderPosition    float64              `json:"sliderPosition"`
	BeforeLoaded      bool                 `json:"beforeLoaded"`
	AfterLoaded       bool                 `json:"afterLoaded"`
	DetectOptions     DetectOptions        `json:"detectOptions"`
	ProUnlocked       bool                 `json:"proUnlocked"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// ObjectURLs lists the local object URLs the session still holds.
func (s *EditSession) ObjectURLs() []string {
	var urls []string
	seen := map[string]bool{}
	for _, u := range []string{s.PreviewURL, s.DisplayedImageURL, s.DownloadURL} {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	if s.CompareSnapshot != nil {
		for _, u := range []string{s.CompareSnapshot.PreviousURL, s.CompareSnapshot.CurrentURL} {
			if u != "" && !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	return urls
}
