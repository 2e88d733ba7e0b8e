package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DeepIndex is the stable pre-order position of a node, assigned once at
// tree-build time. It survives filtering.
type DeepIndex int

// DatasetIndex is the position of a node within one feature context's
// filtered node list. It is recomputed per context and is the only index
// edge construction may use.
type DatasetIndex int

// NoDatasetIndex marks a node that is not part of the current context.
const NoDatasetIndex DatasetIndex = -1

// Node wraps one surviving parse node. Parent and Tree are non-owning
// back-references; Children is the sole ownership edge, so the node graph
// stays a strict tree.
type Node struct {
	Tree   *Tree
	Parsed *html.Node
	Parent *Node

	// Children contains only surviving children once FilterNodes ran.
	// allChildren keeps the original pre-filter list for index-path
	// resolution of externally supplied label locations.
	Children    []*Node
	allChildren []*Node

	// LabelKeys is empty if the node carries no gold label.
	LabelKeys []string

	DeepIndex    DeepIndex
	DatasetIndex DatasetIndex

	// IsVariableText marks a text node whose value differs across pages of
	// the same site. Supplied externally by dataset adapters.
	IsVariableText bool

	// Friends and Partner are set by Tree.ComputeFriendCycles.
	Friends []*Node
	Partner *Node

	// Box and Visuals are set by the visual-data loader.
	Box     *BoundingBox
	Visuals map[string]float64

	// VisualNeighbors is set by Tree.ComputeVisualNeighbors*.
	VisualNeighbors []VisualNeighbor
}

// IsText reports whether the node is a text fragment.
func (n *Node) IsText() bool {
	return n.Parsed.Type == html.TextNode
}

// Text returns the node's own text content. Valid only for text nodes.
func (n *Node) Text() string {
	return n.Parsed.Data
}

// TagName returns the element tag name, or "#text" for text fragments.
func (n *Node) TagName() string {
	if n.IsText() {
		return "#text"
	}
	return n.Parsed.Data
}

// Attr returns the value of an HTML attribute, if present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Parsed.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// IsDetached reports whether the underlying parse node was removed from the
// parse tree by filtering.
func (n *Node) IsDetached() bool {
	return n.Tree.Root != n && n.Parsed.Parent == nil
}

// IsLeaf reports whether the node has no surviving children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Depth returns the number of ancestors of the node.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Ancestors returns up to maxDistance ancestors, nearest first.
func (n *Node) Ancestors(maxDistance int) []*Node {
	var out []*Node
	for p := n.Parent; p != nil && len(out) < maxDistance; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// DistanceTo returns the absolute DeepIndex distance between two nodes.
func (n *Node) DistanceTo(other *Node) int {
	d := int(n.DeepIndex) - int(other.DeepIndex)
	if d < 0 {
		return -d
	}
	return d
}

// FindByIndexPath resolves a node from a root-relative path of positional
// indices among original (pre-filter) children.
func (n *Node) FindByIndexPath(indices []int) (*Node, error) {
	node := n
	for depth, idx := range indices {
		if idx < 0 || idx >= len(node.allChildren) {
			return nil, &LabelResolutionError{
				Path: indices,
				Reason: fmt.Sprintf("index %d out of range at depth %d (%d children)",
					idx, depth, len(node.allChildren)),
			}
		}
		node = node.allChildren[idx]
	}
	return node, nil
}

// IndexPath returns the node's root-relative path of positional indices
// among original children. It is the inverse of FindByIndexPath.
func (n *Node) IndexPath() []int {
	var rev []int
	for node := n; node.Parent != nil; node = node.Parent {
		rev = append(rev, node.positionAmong(node.Parent.allChildren))
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

func (n *Node) positionAmong(siblings []*Node) int {
	for i, s := range siblings {
		if s == n {
			return i
		}
	}
	return -1
}

// LeafDescendants returns the node's leaf descendants in pre-order, using
// original children. A leaf node returns itself.
func (n *Node) LeafDescendants() []*Node {
	if len(n.allChildren) == 0 {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.allChildren {
		out = append(out, c.LeafDescendants()...)
	}
	return out
}

// Unwrap climbs out of wrapper tags: while the node is a text fragment or a
// sole child with a tag from tagNames, the parent is returned instead.
func (n *Node) Unwrap(tagNames map[string]bool) *Node {
	node := n
	for node.Parent != nil && (node.IsText() ||
		(tagNames[node.TagName()] && len(node.Parent.Children) == 1)) {
		node = node.Parent
	}
	return node
}

// XPath returns an absolute XPath for the node. Element steps carry a
// 1-based position among same-tag element siblings; text fragments use
// text()[i]. Positions are computed over original children so the path is
// stable across filtering.
func (n *Node) XPath() string {
	if n.Parent == nil {
		return "/" + n.TagName()
	}
	var b strings.Builder
	b.WriteString(n.Parent.XPath())
	if n.IsText() {
		pos := 1
		for _, s := range n.Parent.allChildren {
			if s == n {
				break
			}
			if s.IsText() {
				pos++
			}
		}
		fmt.Fprintf(&b, "/text()[%d]", pos)
		return b.String()
	}
	pos := 1
	for _, s := range n.Parent.allChildren {
		if s == n {
			break
		}
		if !s.IsText() && s.TagName() == n.TagName() {
			pos++
		}
	}
	fmt.Fprintf(&b, "/%s[%d]", n.TagName(), pos)
	return b.String()
}
