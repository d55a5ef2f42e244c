package editorService

import (
	"context"
	"errors"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
	"safelens/pkg/gesture"
)

// pointerSession is the live gesture state of one session. It outlives a
// single request so a drag can span several event batches.
type pointerSession struct {
	window     *gesture.Window
	surface    *gesture.SessionSurface
	controller *gesture.Controller
	changes    []gesture.Change
}

func (s *editorService) pointer(id string) *pointerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pointers[id]; ok {
		return p
	}

	p := &pointerSession{
		window:  gesture.NewWindow(),
		surface: &gesture.SessionSurface{},
	}
	p.controller = gesture.NewController(p.window, p.surface, func(ch gesture.Change) {
		p.changes = append(p.changes, ch)
	})
	s.pointers[id] = p
	return p
}

// HandlePointer feeds a batch of pointer events through the session's
// gesture controller. Down events start a gesture on an element; every other
// event goes to the window listeners. Processing stops at the first refused
// event, but changes made before it are kept.
func (s *editorService) HandlePointer(ctx context.Context, id string, events []gesture.PointerEvent) (*editor.PointerResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	p := s.pointer(id)
	p.surface.Session = sess
	p.changes = nil
	defer func() { p.surface.Session = nil }()

	var refused error
	for _, ev := range events {
		if ev.Type == gesture.EventDown {
			refused = s.startGesture(p, sess, ev)
		} else {
			p.window.Dispatch(ev)
		}
		if refused != nil {
			break
		}
	}

	changes := p.changes
	p.changes = nil

	if len(changes) > 0 {
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	if refused != nil {
		return nil, refused
	}

	return &editor.PointerResponse{
		Changes: changes,
		Gesture: p.controller.State().String(),
		Session: viewOf(sess),
	}, nil
}

func (s *editorService) startGesture(p *pointerSession, sess *entity.EditSession, ev gesture.PointerEvent) error {
	if ev.Target == gesture.TargetSlider && sess.CompareSnapshot == nil {
		return editor.ErrNotProcessed
	}
	return domainError(p.controller.Start(ev))
}

// ReleasePointer drops any gesture in flight, e.g. when the pointer stream
// disconnects mid-drag, along with the session's gesture state.
func (s *editorService) ReleasePointer(id string) {
	unlock := s.lock(id)
	defer unlock()

	s.mu.Lock()
	p := s.pointers[id]
	delete(s.pointers, id)
	s.mu.Unlock()

	if p != nil {
		p.controller.Close()
	}
}

// PruneGestures drops the gesture state of sessions that are idle or gone.
// Sessions that expire in the repository never pass through DiscardSession,
// so this is what keeps the table bounded. It returns how many entries were
// dropped.
func (s *editorService) PruneGestures(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pointers))
	for id := range s.pointers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	pruned := 0
	for _, id := range ids {
		if s.pruneGesture(ctx, id) {
			pruned++
		}
	}
	return pruned
}

func (s *editorService) pruneGesture(ctx context.Context, id string) bool {
	unlock := s.lock(id)
	defer unlock()

	s.mu.Lock()
	p, ok := s.pointers[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	// a subscribed window means a drag is spanning batches
	if p.window.Len() > 0 {
		_, err := s.repo.NewClient().Session.Get(ctx, id)
		if !errors.Is(err, editor.ErrSessionNotFound) {
			return false
		}
	}

	s.mu.Lock()
	delete(s.pointers, id)
	s.mu.Unlock()
	p.controller.Close()
	return true
}
