package gesture

import (
	"errors"
	"math"
	"sync"

	"safelens/internal/entity"
	"safelens/pkg/geometry"
	"safelens/pkg/regions"
)

var (
	ErrGestureInProgress = errors.New("another gesture is in progress")
	ErrNoLayout          = errors.New("rendered image size is not known yet")
	ErrUnknownRegion     = errors.New("gesture target region not found")
	ErrUnknownTarget     = errors.New("unknown gesture target")
)

type State uint8

const (
	Idle State = iota
	Dragging
	Resizing
	Comparing
)

var StateMap = map[State]string{
	Idle:      "IDLE",
	Dragging:  "DRAGGING",
	Resizing:  "RESIZING",
	Comparing: "COMPARING",
}

func (s State) String() string {
	return StateMap[s]
}

// Surface is what a controller edits: the region list, the rendered image
// box and the compare slider of one session.
type Surface interface {
	Rendered() *entity.RenderedBox
	Region(id string) (entity.DetectionRegion, bool)
	Mutate(id string, patch regions.Patch) (entity.DetectionRegion, error)
	Toggle(id string) (entity.DetectionRegion, bool)
	SetSlider(position float64) float64
}

type ChangeKind string

const (
	ChangeMove   ChangeKind = "move"
	ChangeResize ChangeKind = "resize"
	ChangeToggle ChangeKind = "toggle"
	ChangeSlider ChangeKind = "slider"
)

type Change struct {
	Kind    ChangeKind              `json:"kind"`
	Region  *entity.DetectionRegion `json:"region,omitempty"`
	Slider  *float64                `json:"slider,omitempty"`
	Toggled bool                    `json:"toggled,omitempty"`
}

// movement below this many client pixels does not count as a drag
const clickEpsilon = 1e-6

type gesture struct {
	state    State
	regionID string
	startX   float64
	startY   float64
	origin   geometry.Rect
	moved    bool
}

// Controller runs one pointer gesture at a time. It subscribes to the
// window when a gesture starts and always unsubscribes when the gesture
// ends, is cancelled or the controller is closed.
type Controller struct {
	mu          sync.Mutex
	window      *Window
	surface     Surface
	onChange    func(Change)
	current     *gesture
	unsubscribe func()
}

func NewController(window *Window, surface Surface, onChange func(Change)) *Controller {
	if onChange == nil {
		onChange = func(Change) {}
	}
	return &Controller{
		window:   window,
		surface:  surface,
		onChange: onChange,
	}
}

func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Idle
	}
	return c.current.state
}

// Start begins a gesture from a pointer-down on an element.
func (c *Controller) Start(ev PointerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return ErrGestureInProgress
	}

	box := c.surface.Rendered()
	if !box.Dimensions().Known() {
		return ErrNoLayout
	}

	g := &gesture{startX: ev.ClientX, startY: ev.ClientY}
	switch ev.Target {
	case TargetBody, TargetHandle:
		r, ok := c.surface.Region(ev.RegionID)
		if !ok {
			return ErrUnknownRegion
		}
		g.regionID = r.ID
		g.origin = r.Rect()
		g.state = Dragging
		if ev.Target == TargetHandle {
			g.state = Resizing
		}
	case TargetSlider:
		g.state = Comparing
	default:
		return ErrUnknownTarget
	}

	c.current = g
	c.unsubscribe = c.window.Subscribe(c.handle)

	if g.state == Comparing {
		c.compare(ev, box)
	}
	return nil
}

// Close drops any gesture in flight without applying a click.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release()
}

func (c *Controller) handle(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.current
	if g == nil {
		return
	}

	switch ev.Type {
	case EventMove:
		c.move(ev)
	case EventUp:
		if g.state == Dragging && !g.moved {
			if r, ok := c.surface.Toggle(g.regionID); ok {
				c.onChange(Change{Kind: ChangeToggle, Region: &r, Toggled: true})
			}
		}
		c.release()
	case EventCancel:
		c.release()
	}
}

func (c *Controller) move(ev PointerEvent) {
	g := c.current
	box := c.surface.Rendered()
	if !box.Dimensions().Known() {
		return
	}

	if math.Abs(ev.ClientX-g.startX) > clickEpsilon || math.Abs(ev.ClientY-g.startY) > clickEpsilon {
		g.moved = true
	}

	dx := (ev.ClientX - g.startX) / box.Width * geometry.Full
	dy := (ev.ClientY - g.startY) / box.Height * geometry.Full

	switch g.state {
	case Dragging:
		cur, ok := c.surface.Region(g.regionID)
		if !ok {
			return
		}
		x := geometry.Clamp(g.origin.X+dx, 0, geometry.Full-cur.Width)
		y := geometry.Clamp(g.origin.Y+dy, 0, geometry.Full-cur.Height)
		if r, err := c.surface.Mutate(g.regionID, regions.Patch{X: &x, Y: &y}); err == nil {
			c.onChange(Change{Kind: ChangeMove, Region: &r})
		}
	case Resizing:
		cur, ok := c.surface.Region(g.regionID)
		if !ok {
			return
		}
		w := math.Min(geometry.Full-cur.X, math.Max(geometry.MinSize, g.origin.Width+dx))
		h := math.Min(geometry.Full-cur.Y, math.Max(geometry.MinSize, g.origin.Height+dy))
		if r, err := c.surface.Mutate(g.regionID, regions.Patch{Width: &w, Height: &h}); err == nil {
			c.onChange(Change{Kind: ChangeResize, Region: &r})
		}
	case Comparing:
		c.compare(ev, box)
	}
}

func (c *Controller) compare(ev PointerEvent, box *entity.RenderedBox) {
	pos := geometry.ClampSlider((ev.ClientX - box.Left) / box.Width * geometry.Full)
	pos = c.surface.SetSlider(pos)
	c.onChange(Change{Kind: ChangeSlider, Slider: &pos})
}

func (c *Controller) release() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.current = nil
}
