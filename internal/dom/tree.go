package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Tree is the per-page owner of the node graph.
type Tree struct {
	doc        *html.Node
	parsedRoot *html.Node

	// Root and Nodes are populated by InitNodes. Nodes reflects only
	// non-detached nodes once FilterNodes ran; traversal order is fixed
	// pre-order depth-first.
	Root  *Node
	Nodes []*Node

	// LabeledNodes maps a label key to the nodes it resolved to. Retained
	// for evaluation use.
	LabeledNodes map[string][]*Node

	// LabelOrder records the stable ordering in which label keys were
	// assigned.
	LabelOrder []string

	FriendCyclesComputed bool

	byParsed map[*html.Node]*Node
}

// LabelAssignment carries one gold label key and the index paths of the
// nodes it annotates, expressed against the original unfiltered tree.
type LabelAssignment struct {
	Key   string
	Paths [][]int
}

// Doc exposes the underlying parse tree for selector engines.
func (t *Tree) Doc() *html.Node { return t.doc }

// InitNodes builds one Node per parse node in a single pre-order traversal,
// wiring parent/children and assigning DeepIndex in traversal order. Runs
// before any filtering so indices are stable identifiers.
func (t *Tree) InitNodes() {
	t.Root = t.buildNode(t.parsedRoot, nil)
	t.Nodes = t.Root.traverse()
	for i, node := range t.Nodes {
		node.DeepIndex = DeepIndex(i)
		node.DatasetIndex = NoDatasetIndex
	}
}

func (t *Tree) buildNode(parsed *html.Node, parent *Node) *Node {
	node := &Node{Tree: t, Parsed: parsed, Parent: parent}
	for c := parsed.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		node.allChildren = append(node.allChildren, t.buildNode(c, node))
	}
	node.Children = append([]*Node(nil), node.allChildren...)
	return node
}

// traverse iterates the subtree in DFS pre-order.
func (n *Node) traverse() []*Node {
	var out []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, node)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return out
}

// FilterNodes detaches text nodes whose content is empty or all-whitespace,
// re-derives the flat node list to exclude detached nodes, and prunes each
// surviving node's children. Idempotent; DeepIndex values are untouched.
func (t *Tree) FilterNodes() {
	for _, node := range t.Nodes {
		if node.IsText() && IsEmptyOrWhitespace(node.Text()) && node.Parsed.Parent != nil {
			node.Parsed.Parent.RemoveChild(node.Parsed)
		}
	}

	surviving := make([]*Node, 0, len(t.Nodes))
	for _, node := range t.Nodes {
		if !node.IsDetached() {
			surviving = append(surviving, node)
		}
	}
	t.Nodes = surviving

	for _, node := range t.Nodes {
		kept := make([]*Node, 0, len(node.Children))
		for _, c := range node.Children {
			if !c.IsDetached() {
				kept = append(kept, c)
			}
		}
		node.Children = kept
	}
}

// InitLabels resolves gold-label locations onto the current graph and fills
// each node's LabelKeys. With propagateToLeaves, each resolved node is
// expanded to its leaf descendants first. Previous labeling is cleared.
func (t *Tree) InitLabels(assignments []LabelAssignment, propagateToLeaves bool) error {
	t.LabeledNodes = make(map[string][]*Node)
	t.LabelOrder = t.LabelOrder[:0]
	for _, node := range t.Nodes {
		node.LabelKeys = nil
	}

	for _, a := range assignments {
		t.LabelOrder = append(t.LabelOrder, a.Key)
		var labeled []*Node
		for _, path := range a.Paths {
			node, err := t.Root.FindByIndexPath(path)
			if err != nil {
				if lre, ok := err.(*LabelResolutionError); ok {
					lre.LabelKey = a.Key
				}
				return err
			}
			if propagateToLeaves {
				labeled = append(labeled, node.LeafDescendants()...)
			} else {
				labeled = append(labeled, node)
			}
		}
		t.LabeledNodes[a.Key] = labeled
		for _, node := range labeled {
			node.LabelKeys = append(node.LabelKeys, a.Key)
		}
	}
	return nil
}

// NodeByParsed maps a parse node back to its wrapper. Selector engines run
// against the parse tree; this resolves their matches onto the graph. The
// lookup covers every built node, filtered or not.
func (t *Tree) NodeByParsed(parsed *html.Node) *Node {
	if t.byParsed == nil {
		t.byParsed = make(map[*html.Node]*Node)
		var index func(*Node)
		index = func(n *Node) {
			t.byParsed[n.Parsed] = n
			for _, c := range n.allChildren {
				index(c)
			}
		}
		if t.Root != nil {
			index(t.Root)
		}
	}
	return t.byParsed[parsed]
}

// FindByXPathSegments resolves a node from XPath-style segments as produced
// by Node.XPath. Used by the visual-data loader.
func (t *Tree) FindByXPathSegments(segments []string) (*Node, error) {
	node := t.Root
	for i, seg := range segments {
		if i == 0 {
			if seg != node.TagName() && seg != node.TagName()+"[1]" {
				return nil, fmt.Errorf("segment %q does not match root %q", seg, node.TagName())
			}
			continue
		}
		next := node.childByXPathSegment(seg)
		if next == nil {
			return nil, fmt.Errorf("no child matches segment %q under %s", seg, node.XPath())
		}
		node = next
	}
	return node, nil
}

func (n *Node) childByXPathSegment(seg string) *Node {
	tag, pos := splitXPathSegment(seg)
	count := 0
	for _, c := range n.allChildren {
		if tag == "text()" {
			if !c.IsText() {
				continue
			}
		} else if c.IsText() || c.TagName() != tag {
			continue
		}
		count++
		if count == pos {
			return c
		}
	}
	return nil
}

// splitXPathSegment splits "div[2]" into ("div", 2); a missing position
// defaults to 1.
func splitXPathSegment(seg string) (string, int) {
	for i := 0; i < len(seg); i++ {
		if seg[i] == '[' {
			pos := 0
			for j := i + 1; j < len(seg) && seg[j] != ']'; j++ {
				pos = pos*10 + int(seg[j]-'0')
			}
			if pos == 0 {
				pos = 1
			}
			return seg[:i], pos
		}
	}
	return seg, 1
}
