package skeleton

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural marks a malformed bone hierarchy rejected at load time.
	ErrStructural = errors.New("skeleton: structural error")
	// ErrNotFound marks a lookup of a bone that does not exist.
	ErrNotFound = errors.New("skeleton: not found")
	// ErrInvalidAxis is returned for a zero-length rotation axis.
	ErrInvalidAxis = errors.New("skeleton: zero-length rotation axis")
)

// StructuralError describes why a hierarchy was rejected.
type StructuralError struct {
	Bone   string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Bone == "" {
		return fmt.Sprintf("skeleton: %s", e.Reason)
	}
	return fmt.Sprintf("skeleton: bone %q: %s", e.Bone, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// LookupError is returned when a name or id does not resolve.
// Kind is "bone" or "vertex".
type LookupError struct {
	Kind string
	Name string
	ID   int
}

func (e *LookupError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("skeleton: unknown %s %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("skeleton: unknown %s id %d", e.Kind, e.ID)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }
