package features

import (
	"fmt"

	"github.com/halcyon-data/domgraph/internal/dom"
)

// Feature is one column group of the node feature matrix. Implementations
// are a closed set registered by name; reflection-based discovery is
// deliberately avoided.
type Feature interface {
	// Name is the registry name of the feature.
	Name() string

	// ColumnLabels describes each output column, in order.
	ColumnLabels(root *RootContext) []string

	// Dimension is the number of columns the feature produces.
	Dimension(root *RootContext) int

	// Prepare scans one node to grow root-context statistics. Runs for
	// every node of every training-relevant page before any Compute call.
	Prepare(n *dom.Node, root *RootContext)

	// Compute produces the feature's columns for one node. Must not mutate
	// root-context state; the root context is frozen by then.
	Compute(n *dom.Node, pc *PageContext) []float64
}

// Build resolves an ordered list of feature names into feature instances.
// The order is preserved: it fixes the concatenation order of the node
// feature vector.
func Build(names []string) ([]Feature, error) {
	out := make([]Feature, 0, len(names))
	for _, name := range names {
		switch name {
		case "depth":
			out = append(out, Depth{})
		case "is_leaf":
			out = append(out, IsLeaf{})
		case "char_categories":
			out = append(out, CharCategories{})
		case "visuals":
			out = append(out, Visuals{})
		case "position":
			out = append(out, Position{})
		case "word_identifiers":
			out = append(out, WordIdentifiers{})
		case "char_identifiers":
			out = append(out, CharIdentifiers{})
		default:
			return nil, fmt.Errorf("unknown feature %q", name)
		}
	}
	return out, nil
}

// DefaultFeatureNames is the standard registration order.
var DefaultFeatureNames = []string{
	"depth",
	"is_leaf",
	"char_categories",
	"word_identifiers",
	"char_identifiers",
}

// TotalDimension sums the dimensions of all features.
func TotalDimension(feats []Feature, root *RootContext) int {
	total := 0
	for _, f := range feats {
		total += f.Dimension(root)
	}
	return total
}

// ColumnLabels concatenates every feature's column labels in registration
// order.
func ColumnLabels(feats []Feature, root *RootContext) []string {
	var out []string
	for _, f := range feats {
		out = append(out, f.ColumnLabels(root)...)
	}
	return out
}

// ComputeRow produces one node's full feature vector: the ordered
// concatenation of every feature's output.
func ComputeRow(feats []Feature, n *dom.Node, pc *PageContext) []float64 {
	row := make([]float64, 0, TotalDimension(feats, pc.Root))
	for _, f := range feats {
		row = append(row, f.Compute(n, pc)...)
	}
	return row
}

// PrepareNode runs every feature's prepare step on one node.
func PrepareNode(feats []Feature, n *dom.Node, root *RootContext) {
	for _, f := range feats {
		f.Prepare(n, root)
	}
}
