package features

import (
	"unicode"

	"github.com/halcyon-data/domgraph/internal/dom"
	"github.com/halcyon-data/domgraph/internal/visual"
)

// Depth is the relative depth of a node in the DOM tree.
type Depth struct{}

func (Depth) Name() string                       { return "depth" }
func (Depth) ColumnLabels(*RootContext) []string { return []string{"relative_depth"} }
func (Depth) Dimension(*RootContext) int         { return 1 }
func (Depth) Prepare(*dom.Node, *RootContext)    {}

func (Depth) Compute(n *dom.Node, pc *PageContext) []float64 {
	return []float64{float64(n.Depth()) / float64(pc.MaxDepth())}
}

// IsLeaf flags text nodes.
type IsLeaf struct{}

func (IsLeaf) Name() string                       { return "is_leaf" }
func (IsLeaf) ColumnLabels(*RootContext) []string { return []string{"is_leaf"} }
func (IsLeaf) Dimension(*RootContext) int         { return 1 }
func (IsLeaf) Prepare(*dom.Node, *RootContext)    {}

func (IsLeaf) Compute(n *dom.Node, _ *PageContext) []float64 {
	if n.IsText() {
		return []float64{1}
	}
	return []float64{0}
}

// CharCategories counts characters by category in a text node.
type CharCategories struct{}

func (CharCategories) Name() string { return "char_categories" }

func (CharCategories) ColumnLabels(*RootContext) []string {
	return []string{"dollars", "letters", "digits"}
}

func (CharCategories) Dimension(*RootContext) int      { return 3 }
func (CharCategories) Prepare(*dom.Node, *RootContext) {}

func (CharCategories) Compute(n *dom.Node, _ *PageContext) []float64 {
	if !n.IsText() {
		return []float64{0, 0, 0}
	}
	var dollars, letters, digits float64
	for _, r := range n.Text() {
		switch {
		case r == '$':
			dollars++
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return []float64{dollars, letters, digits}
}

// Visuals emits numeric visual attributes loaded from the extraction tool.
type Visuals struct{}

func (Visuals) Name() string { return "visuals" }

func (Visuals) ColumnLabels(*RootContext) []string {
	return []string{"font_size", "font_weight"}
}

func (Visuals) Dimension(*RootContext) int      { return 2 }
func (Visuals) Prepare(*dom.Node, *RootContext) {}

func (Visuals) Compute(n *dom.Node, _ *PageContext) []float64 {
	// Text fragments inherit their container's visuals.
	src := n
	if n.IsText() && n.Parent != nil {
		src = n.Parent
	}
	fontSize := visual.AttributeDefault("font_size")
	fontWeight := visual.AttributeDefault("font_weight")
	if src.Visuals != nil {
		if v, ok := src.Visuals["font_size"]; ok {
			fontSize = v
		}
		if v, ok := src.Visuals["font_weight"]; ok {
			fontWeight = v
		}
	}
	return []float64{fontSize, fontWeight / 100}
}

// Position emits the node's bounding-box center, coarsely scaled so typical
// viewport coordinates land near the unit range.
type Position struct{}

func (Position) Name() string { return "position" }

func (Position) ColumnLabels(*RootContext) []string {
	return []string{"center_x", "center_y"}
}

func (Position) Dimension(*RootContext) int      { return 2 }
func (Position) Prepare(*dom.Node, *RootContext) {}

func (Position) Compute(n *dom.Node, _ *PageContext) []float64 {
	if n.Box == nil {
		return []float64{0, 0}
	}
	c := n.Box.Center()
	return []float64{c[0] / 1000, c[1] / 1000}
}
