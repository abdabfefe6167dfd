package anchor

import "errors"

var (
	// ErrTypeMismatch is returned when an anchor event arrives for a kind
	// other than KindImage. The event is ignored, never fatal.
	ErrTypeMismatch = errors.New("anchor type mismatch")

	// ErrInvalidConfig is returned when a tracking configuration is unusable.
	ErrInvalidConfig = errors.New("invalid anchor config")
)

// CheckImage returns ErrTypeMismatch unless a is an image anchor.
func CheckImage(a Anchor) error {
	if a.Kind != KindImage {
		return &MismatchError{ID: a.ID, Got: a.Kind}
	}
	return nil
}

// MismatchError carries the offending anchor.
type MismatchError struct {
	ID  string
	Got Kind
}

func (e *MismatchError) Error() string {
	return "anchor " + e.ID + ": expected image anchor, got " + e.Got.String()
}

// Is reports ErrTypeMismatch equivalence for errors.Is.
func (e *MismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
