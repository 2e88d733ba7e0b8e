package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree parses, builds and filters a tree in the standard order.
func buildTree(t *testing.T, htmlText string) *Tree {
	t.Helper()
	tree, err := Parse(htmlText)
	require.NoError(t, err)
	tree.InitNodes()
	tree.FilterNodes()
	return tree
}

func TestInitNodesAssignsPreOrderDeepIndices(t *testing.T) {
	tree, err := Parse("<html><body><div><p>a</p><p>b</p></div></body></html>")
	require.NoError(t, err)
	tree.InitNodes()

	for i, node := range tree.Nodes {
		assert.Equal(t, DeepIndex(i), node.DeepIndex)
		assert.Equal(t, NoDatasetIndex, node.DatasetIndex)
	}
	// Pre-order: every node comes after its parent.
	for _, node := range tree.Nodes {
		if node.Parent != nil {
			assert.Greater(t, int(node.DeepIndex), int(node.Parent.DeepIndex))
		}
	}
}

func TestFilterNodesDropsWhitespaceText(t *testing.T) {
	tree, err := Parse("<html><body><div>\n\t<p>text</p>\n</div></body></html>")
	require.NoError(t, err)
	tree.InitNodes()

	before := len(tree.Nodes)
	tree.FilterNodes()
	after := len(tree.Nodes)
	assert.Less(t, after, before)

	for _, node := range tree.Nodes {
		if node.IsText() {
			assert.False(t, IsEmptyOrWhitespace(node.Text()))
		}
	}
}

func TestFilterNodesKeepsDeepIndicesStable(t *testing.T) {
	tree, err := Parse("<html><body><div>\n<p>a</p>\n<p>b</p>\n</div></body></html>")
	require.NoError(t, err)
	tree.InitNodes()

	byNode := make(map[*Node]DeepIndex)
	for _, node := range tree.Nodes {
		byNode[node] = node.DeepIndex
	}

	tree.FilterNodes()
	for _, node := range tree.Nodes {
		assert.Equal(t, byNode[node], node.DeepIndex)
	}
}

func TestFilterNodesIsIdempotent(t *testing.T) {
	tree, err := Parse("<html><body><div>\n<p>a</p>\n</div></body></html>")
	require.NoError(t, err)
	tree.InitNodes()

	tree.FilterNodes()
	first := append([]*Node(nil), tree.Nodes...)
	tree.FilterNodes()
	assert.Equal(t, first, tree.Nodes)
}

func TestIndexPathRoundTrip(t *testing.T) {
	tree := buildTree(t, "<html><body><div><p>a</p><span>b</span></div><div>c</div></body></html>")

	for _, node := range tree.Nodes {
		path := node.IndexPath()
		found, err := tree.Root.FindByIndexPath(path)
		require.NoError(t, err)
		assert.Same(t, node, found)
	}
}

func TestIndexPathSurvivesFiltering(t *testing.T) {
	// Whitespace siblings shift filtered positions but not original ones.
	tree, err := Parse("<html><body><div>\n<p>a</p>\n<p>b</p></div></body></html>")
	require.NoError(t, err)
	tree.InitNodes()

	var second *Node
	for _, node := range tree.Nodes {
		if node.IsText() && node.Text() == "b" {
			second = node
		}
	}
	require.NotNil(t, second)

	path := second.IndexPath()
	tree.FilterNodes()
	found, err := tree.Root.FindByIndexPath(path)
	require.NoError(t, err)
	assert.Same(t, second, found)
}

func TestFindByIndexPathOutOfRange(t *testing.T) {
	tree := buildTree(t, "<html><body><p>a</p></body></html>")
	_, err := tree.Root.FindByIndexPath([]int{0, 7})
	var lre *LabelResolutionError
	require.ErrorAs(t, err, &lre)
}

func TestInitLabels(t *testing.T) {
	tree := buildTree(t, "<html><body><div><p>name</p><p>price</p></div></body></html>")

	var price *Node
	for _, node := range tree.Nodes {
		if node.IsText() && node.Text() == "price" {
			price = node
		}
	}
	require.NotNil(t, price)

	err := tree.InitLabels([]LabelAssignment{
		{Key: "price", Paths: [][]int{price.Parent.IndexPath()}},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"price"}, tree.LabelOrder)
	assert.Equal(t, []string{"price"}, price.Parent.LabelKeys)
	assert.Empty(t, price.LabelKeys)
}

func TestInitLabelsPropagatesToLeaves(t *testing.T) {
	tree := buildTree(t, "<html><body><div><p>name</p><p>price</p></div></body></html>")

	var div *Node
	for _, node := range tree.Nodes {
		if node.TagName() == "div" {
			div = node
		}
	}
	require.NotNil(t, div)

	err := tree.InitLabels([]LabelAssignment{
		{Key: "item", Paths: [][]int{div.IndexPath()}},
	}, true)
	require.NoError(t, err)

	labeled := tree.LabeledNodes["item"]
	require.Len(t, labeled, 2)
	for _, node := range labeled {
		assert.True(t, node.IsText())
		assert.Equal(t, []string{"item"}, node.LabelKeys)
	}
	assert.Empty(t, div.LabelKeys)
}

func TestInitLabelsClearsPreviousAssignment(t *testing.T) {
	tree := buildTree(t, "<html><body><p>a</p></body></html>")

	var text *Node
	for _, node := range tree.Nodes {
		if node.IsText() {
			text = node
		}
	}
	require.NoError(t, tree.InitLabels([]LabelAssignment{
		{Key: "first", Paths: [][]int{text.IndexPath()}},
	}, false))
	require.NoError(t, tree.InitLabels([]LabelAssignment{
		{Key: "second", Paths: [][]int{text.IndexPath()}},
	}, false))

	assert.Equal(t, []string{"second"}, text.LabelKeys)
	assert.NotContains(t, tree.LabeledNodes, "first")
}

func TestXPath(t *testing.T) {
	tree := buildTree(t, "<html><body><div><p>a</p><span>x</span><p>b</p></div></body></html>")

	want := map[string]bool{
		"/html/body[1]/div[1]/p[1]":           true,
		"/html/body[1]/div[1]/p[2]":           true,
		"/html/body[1]/div[1]/span[1]":        true,
		"/html/body[1]/div[1]/p[1]/text()[1]": true,
	}
	seen := 0
	for _, node := range tree.Nodes {
		if want[node.XPath()] {
			seen++
		}
	}
	assert.Equal(t, len(want), seen)
}

func TestFindByXPathSegments(t *testing.T) {
	tree := buildTree(t, "<html><body><div><p>a</p><p>b</p></div></body></html>")

	node, err := tree.FindByXPathSegments([]string{"html", "body[1]", "div[1]", "p[2]", "text()[1]"})
	require.NoError(t, err)
	assert.True(t, node.IsText())
	assert.Equal(t, "b", node.Text())

	_, err = tree.FindByXPathSegments([]string{"html", "body[1]", "table[1]"})
	require.Error(t, err)
}

func TestNodeByParsed(t *testing.T) {
	tree := buildTree(t, "<html><body><p>a</p></body></html>")
	for _, node := range tree.Nodes {
		assert.Same(t, node, tree.NodeByParsed(node.Parsed))
	}
	assert.Nil(t, tree.NodeByParsed(nil))
}

func TestUnwrap(t *testing.T) {
	tree := buildTree(t, "<html><body><div><b>bold</b></div></body></html>")

	var text *Node
	for _, node := range tree.Nodes {
		if node.IsText() {
			text = node
		}
	}
	require.NotNil(t, text)

	wrappers := map[string]bool{"b": true, "i": true, "span": true}
	unwrapped := text.Unwrap(wrappers)
	assert.Equal(t, "div", unwrapped.TagName())
}

func TestDepthAndAncestors(t *testing.T) {
	tree := buildTree(t, "<html><body><div><p>a</p></div></body></html>")

	var text *Node
	for _, node := range tree.Nodes {
		if node.IsText() {
			text = node
		}
	}
	require.NotNil(t, text)
	assert.Equal(t, 4, text.Depth())

	anc := text.Ancestors(2)
	require.Len(t, anc, 2)
	assert.Equal(t, "p", anc[0].TagName())
	assert.Equal(t, "div", anc[1].TagName())

	assert.Len(t, text.Ancestors(10), 4)
}
