package gesture

import "sync"

type EventType string

const (
	EventDown   EventType = "down"
	EventMove   EventType = "move"
	EventUp     EventType = "up"
	EventCancel EventType = "cancel"
)

// Target is the element a pointer-down landed on.
type Target string

const (
	TargetBody   Target = "body"
	TargetHandle Target = "handle"
	TargetSlider Target = "slider"
)

type PointerEvent struct {
	Type      EventType `json:"type" validate:"required,oneof=down move up cancel"`
	Target    Target    `json:"target,omitempty" validate:"omitempty,oneof=body handle slider"`
	RegionID  string    `json:"regionId,omitempty"`
	PointerID int       `json:"pointerId,omitempty"`
	ClientX   float64   `json:"clientX"`
	ClientY   float64   `json:"clientY"`
}

type Listener func(PointerEvent)

// Window is the window-level listener scope. Move, up and cancel events are
// dispatched here regardless of which element the pointer is over.
type Window struct {
	mu        sync.Mutex
	listeners map[uint64]Listener
	next      uint64
}

func NewWindow() *Window {
	return &Window{listeners: make(map[uint64]Listener)}
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is a no-op.
func (w *Window) Subscribe(fn Listener) func() {
	w.mu.Lock()
	id := w.next
	w.next++
	w.listeners[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.listeners, id)
			w.mu.Unlock()
		})
	}
}

func (w *Window) Dispatch(ev PointerEvent) {
	w.mu.Lock()
	fns := make([]Listener, 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len reports how many listeners are attached.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}
