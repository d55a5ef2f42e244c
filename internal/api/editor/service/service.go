package editorService

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"safelens/internal/api/editor"
	editorRepository "safelens/internal/api/editor/repository"
	"safelens/internal/entity"
	"safelens/pkg/gesture"
	"safelens/pkg/objecturl"
	"safelens/pkg/pipeline"
	"safelens/pkg/preview"
	"safelens/pkg/regions"
	"safelens/pkg/s3"
	"safelens/pkg/safelens"
)

type IEditorService interface {
	CreateSession(ctx context.Context, memberID int64, fileName string, data []byte) (*editor.SessionView, error)
	GetSession(ctx context.Context, id string) (*editor.SessionView, error)
	DiscardSession(ctx context.Context, id string) error

	ReportImageLoad(ctx context.Context, id string, req editor.ImageLoadRequest) (*editor.SessionView, error)
	ReportLayout(ctx context.Context, id string, req editor.LayoutRequest) (*editor.SessionView, error)
	SetDetectOptions(ctx context.Context, id string, req editor.DetectOptionsRequest) (*editor.SessionView, error)
	SetFilter(ctx context.Context, id string, req editor.FilterRequest) (*editor.SessionView, error)
	UnlockPro(ctx context.Context, id string) (*editor.SessionView, error)

	Detect(ctx context.Context, id string) (*editor.SessionView, error)
	Edit(ctx context.Context, id string) (*editor.SessionView, error)

	AddManualRegion(ctx context.Context, id string) (*editor.SessionView, error)
	RemoveManualRegion(ctx context.Context, id, regionID string) (*editor.SessionView, error)
	ToggleRegion(ctx context.Context, id, regionID string) (*editor.SessionView, error)
	MutateRegion(ctx context.Context, id, regionID string, req editor.MutateRegionRequest) (*editor.SessionView, error)

	HandlePointer(ctx context.Context, id string, events []gesture.PointerEvent) (*editor.PointerResponse, error)
	ReleasePointer(id string)
	PruneGestures(ctx context.Context) int

	UpdateCompare(ctx context.Context, id string, req editor.CompareRequest) (*editor.SessionView, error)
	RenderPreview(ctx context.Context, id string) ([]byte, error)
	RenderCompare(ctx context.Context, id string) ([]byte, error)
	Download(ctx context.Context, id string) (*editor.DownloadResponse, error)
	Share(ctx context.Context, id string) (*editor.ShareResponse, error)
	ExportImage(ctx context.Context, id string) ([]byte, string, error)

	ResolveBlob(id string) (objecturl.Blob, error)
	RevokeBlob(id string) bool
}

type Config struct {
	// RequestTimeout bounds every call to the SafeLens API.
	RequestTimeout  time.Duration
	DefaultMemberID int64
	ShareTTL        time.Duration
}

type editorService struct {
	log      *logrus.Logger
	repo     editorRepository.Repository
	client   safelens.IClient
	blobs    *objecturl.Registry
	renderer *preview.Renderer
	s3Client s3.ItfS3
	cfg      Config
	now      func() time.Time
	newID    func() string

	mu       sync.Mutex
	locks    map[string]*sessionLock
	pointers map[string]*pointerSession
}

// sessionLock is dropped from the lock table once nobody holds or waits on
// it, so the table only ever holds sessions with requests in flight.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewEditorService wires the editor. s3Client may be nil, in which case
// share links are unavailable.
func NewEditorService(
	log *logrus.Logger,
	repo editorRepository.Repository,
	client safelens.IClient,
	blobs *objecturl.Registry,
	renderer *preview.Renderer,
	s3Client s3.ItfS3,
	cfg Config,
) IEditorService {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DefaultMemberID <= 0 {
		cfg.DefaultMemberID = 1
	}
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = s3.DefaultPresignTTL
	}

	return &editorService{
		log:      log,
		repo:     repo,
		client:   client,
		blobs:    blobs,
		renderer: renderer,
		s3Client: s3Client,
		cfg:      cfg,
		now:      time.Now,
		newID:    newSessionID,
		locks:    make(map[string]*sessionLock),
		pointers: make(map[string]*pointerSession),
	}
}

// lock serializes every mutation of one session.
func (s *editorService) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *editorService) forget(id string) {
	s.mu.Lock()
	p := s.pointers[id]
	delete(s.pointers, id)
	s.mu.Unlock()

	if p != nil {
		p.controller.Close()
	}
}

func (s *editorService) load(ctx context.Context, id string) (*entity.EditSession, error) {
	sess, err := s.repo.NewClient().Session.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// A busy state older than any upstream call can last was left behind
	// by a process that stopped mid-call.
	if sess.State.Busy() && s.now().Sub(sess.UpdatedAt) > 2*s.cfg.RequestTimeout {
		s.log.WithFields(logFields(ctx, id, nil)).WithField("state", sess.State.String()).Warn("Recovering stale pipeline state")
		pipeline.For(sess).Abort()
	}
	return sess, nil
}

func (s *editorService) save(ctx context.Context, sess *entity.EditSession) error {
	sess.UpdatedAt = s.now()
	return s.repo.NewClient().Session.Save(ctx, sess)
}

// update loads the session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *editorService) update(ctx context.Context, id string, fn func(sess *entity.EditSession) error) (*entity.EditSession, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *editorService) read(ctx context.Context, id string) (*entity.EditSession, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.load(ctx, id)
}

func (s *editorService) updateView(ctx context.Context, id string, fn func(sess *entity.EditSession) error) (*editor.SessionView, error) {
	sess, err := s.update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	return viewOf(sess), nil
}

// domainError translates package errors into editor response errors.
func domainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pipeline.ErrOperationInProgress):
		return editor.ErrInProgress
	case errors.Is(err, pipeline.ErrNotAnalyzed):
		return editor.ErrNotAnalyzed
	case errors.Is(err, regions.ErrNoDimensions):
		return editor.ErrNoDimensions
	case errors.Is(err, regions.ErrNotFound), errors.Is(err, gesture.ErrUnknownRegion):
		return editor.ErrRegionNotFound
	case errors.Is(err, gesture.ErrGestureInProgress):
		return editor.ErrGestureActive
	case errors.Is(err, gesture.ErrNoLayout):
		return editor.ErrNoLayout
	case errors.Is(err, gesture.ErrUnknownTarget):
		return editor.ErrUnknownGesture
	}
	return err
}
