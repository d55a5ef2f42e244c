package historyService

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"safelens/internal/api/history"
	"safelens/internal/entity"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/gesture"
	"safelens/pkg/safelens"
	"safelens/pkg/utils"
)

func (s *historyService) List(ctx context.Context, memberID int64, req history.ListRequest) (*history.ListResponse, error) {
	if memberID <= 0 {
		return nil, history.ErrInvalidMemberID
	}

	resp, err := s.fetch(ctx, memberID)
	if err != nil {
		return nil, err
	}

	sorted := sortedItems(resp.Histories)
	matched := filterItems(sorted, req)

	out := &history.ListResponse{
		MemberID:       resp.MemberID,
		Nickname:       resp.Nickname,
		TotalHistories: resp.TotalHistories,
		Matched:        len(matched),
		Items:          make([]history.ItemView, 0, len(matched)),
	}
	for _, item := range sorted {
		out.TotalDetections += len(item.Detections)
		if item.Filter == entity.FilterAIRemove.Wire() {
			out.AIEdits++
		}
	}
	if len(sorted) > 0 {
		latest := s.itemView(sorted[0])
		out.Latest = &latest
	}
	for _, item := range matched {
		out.Items = append(out.Items, s.itemView(item))
	}

	return out, nil
}

// Step applies one lightbox key press to the filtered list and returns the
// item now shown. Steps past either end keep the current item.
func (s *historyService) Step(ctx context.Context, memberID int64, req history.StepRequest) (*history.StepResponse, error) {
	if memberID <= 0 {
		return nil, history.ErrInvalidMemberID
	}

	resp, err := s.fetch(ctx, memberID)
	if err != nil {
		return nil, err
	}

	matched := filterItems(sortedItems(resp.Histories), req.ListRequest)
	if req.Index < 0 || req.Index >= len(matched) {
		return nil, history.ErrIndexOutOfRange
	}

	stepper := gesture.Stepper{Index: req.Index, Len: len(matched)}
	moved := stepper.Key(req.Key)

	return &history.StepResponse{
		Index: stepper.Index,
		Total: len(matched),
		Moved: moved,
		Item:  s.itemView(matched[stepper.Index]),
	}, nil
}

func (s *historyService) Detail(ctx context.Context, historyID int64) (*history.DetailResponse, error) {
	if historyID <= 0 {
		return nil, history.ErrInvalidHistoryID
	}

	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.FetchHistoryDetail(c, historyID)
	if err != nil {
		var apiErr *safelens.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, history.ErrHistoryNotFound
		}
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"history_id": historyID,
			"error":      err.Error(),
		}).Error("failed to fetch history detail")
		return nil, history.ErrHistoryUnavailable
	}

	edited := resp.EditedImageURL
	detections := detectionViews(resp.Detections)
	return &history.DetailResponse{
		HistoryID:      resp.HistoryID,
		MemberID:       resp.MemberID,
		Title:          title(resp.HistoryID),
		ImageUUID:      resp.ImageUUID,
		OriginalURL:    s.client.BuildImageURL(resp.ImageUUID, safelens.ImageOriginal),
		EditedImageURL: edited,
		PreviewURL:     utils.WithQuery(edited, "quality", history.QualityLow),
		DownloadURL:    utils.WithQuery(edited, "quality", history.QualityHigh),
		Filter:         resp.Filter,
		FilterLabel:    filterLabel(resp.Filter),
		CreatedAt:      resp.CreatedAt,
		Detections:     detections,
		CategoryCounts: categoryCounts(resp.Detections),
	}, nil
}

func (s *historyService) fetch(ctx context.Context, memberID int64) (*safelens.HistoryResponse, error) {
	c, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.FetchHistory(c, memberID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"member_id":  memberID,
			"error":      err.Error(),
		}).Error("failed to fetch history")
		return nil, history.ErrHistoryUnavailable
	}
	return resp, nil
}

func (s *historyService) itemView(item safelens.HistoryItem) history.ItemView {
	thumb := item.NewURL
	if thumb == "" {
		thumb = s.client.BuildImageURL(item.NewUUID, safelens.ImageEdited)
	}

	return history.ItemView{
		HistoryID:      item.HistoryID,
		Title:          title(item.HistoryID),
		OldUUID:        item.OldUUID,
		NewUUID:        item.NewUUID,
		Filter:         item.Filter,
		FilterLabel:    filterLabel(item.Filter),
		CreatedAt:      item.CreatedAt,
		OriginalURL:    s.client.BuildImageURL(item.OldUUID, safelens.ImageOriginal),
		ThumbnailURL:   thumb,
		PreviewURL:     utils.WithQuery(thumb, "quality", history.QualityLow),
		DownloadURL:    utils.WithQuery(thumb, "quality", history.QualityHigh),
		DownloadName:   history.DefaultDownloadName,
		Detections:     detectionViews(item.Detections),
		CategoryCounts: categoryCounts(item.Detections),
	}
}

// sortedItems returns a newest-first copy. Items with equal timestamps keep
// the API's order.
func sortedItems(items []safelens.HistoryItem) []safelens.HistoryItem {
	out := make([]safelens.HistoryItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func filterItems(items []safelens.HistoryItem, req history.ListRequest) []safelens.HistoryItem {
	query := strings.ToLower(strings.TrimSpace(req.Query))

	out := make([]safelens.HistoryItem, 0, len(items))
	for _, item := range items {
		if req.Filter != "" && req.Filter != history.FilterAll && item.Filter != req.Filter {
			continue
		}
		if req.Category != "" && req.Category != history.CategoryAll && !hasCategory(item, req.Category) {
			continue
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func hasCategory(item safelens.HistoryItem, category string) bool {
	for _, d := range item.Detections {
		if d.Category == category {
			return true
		}
	}
	return false
}

func matchesQuery(item safelens.HistoryItem, query string) bool {
	for _, field := range []string{item.OldUUID, item.NewUUID, filterLabel(item.Filter)} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func detectionViews(in []safelens.Region) []history.DetectionView {
	out := make([]history.DetectionView, 0, len(in))
	for _, d := range in {
		out = append(out, history.DetectionView{
			Category: d.Category,
			Label:    entity.CategoryFromWire(d.Category).Label(),
			X:        d.X,
			Y:        d.Y,
			Width:    d.Width,
			Height:   d.Height,
			DetectID: d.DetectID,
		})
	}
	return out
}

func categoryCounts(in []safelens.Region) map[string]int {
	out := make(map[string]int)
	for _, d := range in {
		out[d.Category]++
	}
	return out
}

func filterLabel(wire string) string {
	if f, ok := entity.FilterFromWire(wire); ok {
		return f.Label()
	}
	return wire
}

func title(historyID int64) string {
	return fmt.Sprintf("#%d", historyID)
}
