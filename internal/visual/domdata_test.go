package visual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-data/domgraph/internal/dom"
)

func buildTree(t *testing.T, htmlText string) *dom.Tree {
	t.Helper()
	tree, err := dom.Parse(htmlText)
	require.NoError(t, err)
	tree.InitNodes()
	tree.FilterNodes()
	return tree
}

const pageHTML = `<html><body><p id="x">hello</p></body></html>`

const pageVisuals = `{
	"/html": {
		"id": "",
		"/body[1]": {
			"id": "",
			"/p[1]": {
				"id": "x",
				"box": [10, 20, 100, 30],
				"fontSize": 14,
				"fontWeight": "700",
				"/text()[1]": {
					"box": [12, 22, 80, 20]
				}
			}
		}
	}
}`

func TestApplyAll(t *testing.T) {
	tree := buildTree(t, pageHTML)
	data, err := Load([]byte(pageVisuals), "page-1", nil)
	require.NoError(t, err)
	require.NoError(t, data.ApplyAll(tree))

	var p, text *dom.Node
	for _, node := range tree.Nodes {
		switch {
		case node.TagName() == "p":
			p = node
		case node.IsText():
			text = node
		}
	}
	require.NotNil(t, p)
	require.NotNil(t, text)

	require.NotNil(t, p.Box)
	assert.Equal(t, dom.BoundingBox{X: 10, Y: 20, Width: 100, Height: 30}, *p.Box)
	assert.Equal(t, 14.0, p.Visuals["font_size"])
	assert.Equal(t, 700.0, p.Visuals["font_weight"])
	// Absent attributes fall back to registry defaults.
	assert.Equal(t, 1.0, p.Visuals["opacity"])
	assert.Equal(t, 1.0, p.Visuals["visibility"])

	// Text fragments carry a box but inherit attributes from the container.
	require.NotNil(t, text.Box)
	assert.Equal(t, 12.0, text.Box.X)
	assert.Nil(t, text.Visuals)
}

func TestApplyAllIDMismatchIsFatal(t *testing.T) {
	tree := buildTree(t, `<html><body><p id="other">hello</p></body></html>`)
	data, err := Load([]byte(pageVisuals), "page-1", nil)
	require.NoError(t, err)

	err = data.ApplyAll(tree)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Reason, "id mismatch")
}

func TestApplyAllMissingEntryIsFatal(t *testing.T) {
	tree := buildTree(t, `<html><body><p>hello</p><span>extra</span></body></html>`)
	data, err := Load([]byte(pageVisuals), "page-1", nil)
	require.NoError(t, err)

	err = data.ApplyAll(tree)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestApplyAllUnusedEntryIsFatal(t *testing.T) {
	doc := `{
		"/html": {
			"id": "",
			"/body[1]": {
				"id": "",
				"/p[1]": {
					"id": "x",
					"/text()[1]": {}
				},
				"/div[1]": {
					"id": "",
					"fontSize": 10
				}
			}
		}
	}`
	tree := buildTree(t, pageHTML)
	data, err := Load([]byte(doc), "page-1", nil)
	require.NoError(t, err)

	err = data.ApplyAll(tree)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Reason, "unused")
}

func TestApplyAllToleratesUnusedTextEntries(t *testing.T) {
	// Whitespace-only fragments are filtered out of the DOM, but the browser
	// still reports them.
	doc := `{
		"/html": {
			"id": "",
			"/body[1]": {
				"id": "",
				"/p[1]": {
					"id": "x",
					"/text()[1]": {},
					"/text()[2]": {}
				}
			}
		}
	}`
	tree := buildTree(t, pageHTML)
	data, err := Load([]byte(doc), "page-1", nil)
	require.NoError(t, err)
	assert.NoError(t, data.ApplyAll(tree))
}

func TestApplyAllSkipsIgnoredSubtrees(t *testing.T) {
	doc := `{
		"/html": {
			"id": "",
			"/head[1]": {
				"id": "",
				"/title[1]": {"id": ""}
			},
			"/body[1]": {
				"id": "",
				"/p[1]": {
					"id": "x",
					"/text()[1]": {}
				}
			}
		}
	}`
	tree := buildTree(t, pageHTML)
	data, err := Load([]byte(doc), "page-1", nil)
	require.NoError(t, err)
	assert.NoError(t, data.ApplyAll(tree))
}

func TestApplyAllPatchesUnparsableAttribute(t *testing.T) {
	doc := `{
		"/html": {
			"id": "",
			"/body[1]": {
				"id": "",
				"/p[1]": {
					"id": "x",
					"fontWeight": "bolder-ish",
					"/text()[1]": {}
				}
			}
		}
	}`
	tree := buildTree(t, pageHTML)
	data, err := Load([]byte(doc), "page-1", nil)
	require.NoError(t, err)
	require.NoError(t, data.ApplyAll(tree))

	for _, node := range tree.Nodes {
		if node.TagName() == "p" {
			assert.Equal(t, 400.0, node.Visuals["font_weight"])
		}
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	_, err := Load([]byte("{nope"), "page-1", nil)
	require.Error(t, err)
}

func TestParseVisibility(t *testing.T) {
	v, err := parseVisibility("hidden")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = parseVisibility("visible")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = parseVisibility(true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestAttributeDefault(t *testing.T) {
	assert.Equal(t, 400.0, AttributeDefault("font_weight"))
	assert.Equal(t, 0.0, AttributeDefault("unknown"))
}
