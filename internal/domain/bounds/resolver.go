// Package bounds converts UI container measurements into native view
// rectangles and decides when bounds may be pushed to the view host.
package bounds

import (
	"math"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// DefaultFallback is a full default viewport used when no container is mounted
var DefaultFallback = types.Rectangle{X: 0, Y: 0, Width: 1280, Height: 800}

// Resolver computes device rectangles
type Resolver struct {
	fallback types.Rectangle
}

// NewResolver creates a resolver. A fallback with no area is replaced by
// DefaultFallback so a view never ends up without bounds.
func NewResolver(fallback types.Rectangle) *Resolver {
	if fallback.Empty() || fallback.Width < 0 || fallback.Height < 0 {
		fallback = DefaultFallback
	}
	return &Resolver{fallback: fallback}
}

// Fallback returns the rectangle applied when no container is measured
func (r *Resolver) Fallback() types.Rectangle {
	return r.fallback
}

// ComputeRectangle rounds each field half away from zero and clamps it to
// zero. A nil container yields the fallback.
func (r *Resolver) ComputeRectangle(container *types.RectF) types.Rectangle {
	if container == nil {
		return r.fallback
	}
	return types.Rectangle{
		X:      roundPixel(container.X),
		Y:      roundPixel(container.Y),
		Width:  roundPixel(container.Width),
		Height: roundPixel(container.Height),
	}
}

// ShouldPropagate reports whether bounds and visibility updates may be sent:
// only with an active view that is neither hidden nor under a modal overlay.
func ShouldPropagate(activeViewPresent, isHidden, isOverlayOpen bool) bool {
	return activeViewPresent && !isHidden && !isOverlayOpen
}

func roundPixel(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}
