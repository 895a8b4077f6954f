package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a registry operation references an unknown
// area, call center or report.
var ErrNotFound = errors.New("not found")

// GeometryError reports a malformed polygon or out-of-range coordinate.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry: " + e.Reason
}

// InvariantViolation reports a gap or duplicate in a call center's priority
// sequence. It indicates a bug and is never repaired silently.
type InvariantViolation struct {
	CallCenterID int64
	Priorities   []int
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("call center %d: priority sequence %v is not dense", e.CallCenterID, e.Priorities)
}
