package types

// Rectangle is a view rectangle in device pixels
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectF is a container measurement as reported by the UI
type RectF struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rectangle has no area
func (r Rectangle) Empty() bool {
	return r.Width == 0 || r.Height == 0
}
