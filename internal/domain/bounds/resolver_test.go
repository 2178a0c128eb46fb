package bounds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

func TestComputeRectangleFallback(t *testing.T) {
	r := NewResolver(types.Rectangle{Width: 1024, Height: 768})
	assert.Equal(t, types.Rectangle{Width: 1024, Height: 768}, r.ComputeRectangle(nil))

	r = NewResolver(types.Rectangle{})
	assert.Equal(t, DefaultFallback, r.ComputeRectangle(nil))
}

func TestComputeRectangleRounding(t *testing.T) {
	r := NewResolver(DefaultFallback)

	tests := []struct {
		name string
		in   types.RectF
		want types.Rectangle
	}{
		{
			name: "fractional container",
			in:   types.RectF{X: 10.6, Y: 0, Width: 800.2, Height: 600.9},
			want: types.Rectangle{X: 11, Y: 0, Width: 800, Height: 601},
		},
		{
			name: "halves round away from zero",
			in:   types.RectF{X: 0.5, Y: 1.5, Width: 2.5, Height: 99.5},
			want: types.Rectangle{X: 1, Y: 2, Width: 3, Height: 100},
		},
		{
			name: "negatives clamp to zero",
			in:   types.RectF{X: -4.2, Y: -0.4, Width: 300, Height: -1},
			want: types.Rectangle{X: 0, Y: 0, Width: 300, Height: 0},
		},
		{
			name: "NaN clamps to zero",
			in:   types.RectF{X: math.NaN(), Y: 3, Width: 10, Height: 10},
			want: types.Rectangle{X: 0, Y: 3, Width: 10, Height: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ComputeRectangle(&tt.in))
		})
	}
}

func TestComputeRectangleIsStableAcrossDrag(t *testing.T) {
	r := NewResolver(DefaultFallback)

	// the same logical size measured with sub-pixel jitter maps to one rectangle
	a := r.ComputeRectangle(&types.RectF{X: 100.49, Y: 50, Width: 640.4, Height: 480})
	b := r.ComputeRectangle(&types.RectF{X: 99.51, Y: 50, Width: 639.6, Height: 480})
	assert.Equal(t, a, b)
}

func TestShouldPropagate(t *testing.T) {
	tests := []struct {
		active, hidden, overlay bool
		want                    bool
	}{
		{true, false, false, true},
		{false, false, false, false},
		{true, true, false, false},
		{true, false, true, false},
		{false, true, true, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldPropagate(tt.active, tt.hidden, tt.overlay),
			"active=%v hidden=%v overlay=%v", tt.active, tt.hidden, tt.overlay)
	}
}
