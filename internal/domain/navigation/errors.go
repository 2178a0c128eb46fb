package navigation

import (
	"errors"
	"fmt"
)

var (
	// ErrViewNotFound matches every *ViewNotFoundError
	ErrViewNotFound = errors.New("view not found")
	// ErrInvalidURL is returned when a navigation target cannot be parsed
	ErrInvalidURL = errors.New("invalid url")
)

// ViewNotFoundError reports an operation on a view id the host does not know.
// A stale id means a lifecycle event was missed upstream, so it is surfaced
// rather than ignored.
type ViewNotFoundError struct {
	ViewID string `json:"view_id"`
	Op     string `json:"op"`
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("%s: view %s not found", e.Op, e.ViewID)
}

// Is makes errors.Is(err, ErrViewNotFound) hold
func (e *ViewNotFoundError) Is(target error) bool {
	return target == ErrViewNotFound
}
