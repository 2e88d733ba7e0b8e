package dom

// BoundingBox is a node's rendered rectangle as reported by the browser
// extraction tool: left/top corner plus width and height in CSS pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the box's center point.
func (b BoundingBox) Center() [2]float64 {
	return [2]float64{b.X + b.Width/2, b.Y + b.Height/2}
}

// Corners returns the four corner points in a fixed order: top-left,
// top-right, bottom-left, bottom-right.
func (b BoundingBox) Corners() [4][2]float64 {
	return [4][2]float64{
		{b.X, b.Y},
		{b.X + b.Width, b.Y},
		{b.X, b.Y + b.Height},
		{b.X + b.Width, b.Y + b.Height},
	}
}
