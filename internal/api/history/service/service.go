package historyService

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"safelens/internal/api/history"
	"safelens/pkg/safelens"
)

type IHistoryService interface {
	List(ctx context.Context, memberID int64, req history.ListRequest) (*history.ListResponse, error)
	Step(ctx context.Context, memberID int64, req history.StepRequest) (*history.StepResponse, error)
	Detail(ctx context.Context, historyID int64) (*history.DetailResponse, error)
}

type historyService struct {
	log     *logrus.Logger
	client  safelens.IClient
	timeout time.Duration
}

// NewHistoryService reads the edit history from the SafeLens API. timeout
// bounds each upstream call.
func NewHistoryService(log *logrus.Logger, client safelens.IClient, timeout time.Duration) IHistoryService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &historyService{
		log:     log,
		client:  client,
		timeout: timeout,
	}
}
