package gesture

// Stepper moves a one-dimensional index over a list of Len items with the
// arrow keys. Other keys and steps past either end leave it unchanged.
type Stepper struct {
	Index int
	Len   int
}

const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// Key applies a key press and reports whether the index changed.
func (s *Stepper) Key(key string) bool {
	switch key {
	case KeyArrowLeft:
		if s.Index > 0 {
			s.Index--
			return true
		}
	case KeyArrowRight:
		if s.Index < s.Len-1 {
			s.Index++
			return true
		}
	}
	return false
}
