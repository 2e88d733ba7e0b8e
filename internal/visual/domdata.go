package visual

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/halcyon-data/domgraph/internal/dom"
)

// MismatchError signals drift between the extraction tool's output and the
// current DOM: an element-id mismatch, a missing entry, or an entry no node
// consumed.
type MismatchError struct {
	Path   string
	XPath  string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("visual data %s: %s: %s", e.Path, e.XPath, e.Reason)
}

// MissingError signals that a node which must carry a bounding box (labeled
// or classification target) has none.
type MissingError struct {
	Path  string
	XPath string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("visual data %s: no bounding box for %s", e.Path, e.XPath)
}

// DomData holds the parsed visual-attribute document for one page.
type DomData struct {
	// Path identifies the source document in errors.
	Path string

	data map[string]any
	log  *zap.Logger
}

// Load parses a visual-attribute JSON document.
func Load(jsonText []byte, path string, log *zap.Logger) (*DomData, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &DomData{Path: path, log: log}
	if err := sonic.Unmarshal(jsonText, &d.data); err != nil {
		return nil, fmt.Errorf("visual data %s: %w", path, err)
	}
	return d, nil
}

// ApplyAll loads visual values onto every node of the tree and then verifies
// that every entry of the document was consumed.
func (d *DomData) ApplyAll(tree *dom.Tree) error {
	consumed := make(map[string]bool, len(tree.Nodes))
	for _, node := range tree.Nodes {
		if err := d.applyOne(node, consumed); err != nil {
			return err
		}
	}
	return d.checkUnused(d.data, "", consumed)
}

func (d *DomData) applyOne(node *dom.Node, consumed map[string]bool) error {
	xpath := node.XPath()
	entry, err := d.find(xpath)
	if err != nil {
		return err
	}
	consumed[xpath] = true

	// Cross-check element ids: the extraction tool saw the same element.
	if !node.IsText() {
		realID, _ := node.Attr("id")
		extractedID, _ := entry["id"].(string)
		if realID != extractedID {
			return &MismatchError{
				Path:  d.Path,
				XPath: xpath,
				Reason: fmt.Sprintf("id mismatch (%q vs %q)",
					realID, extractedID),
			}
		}
	}

	if raw, ok := entry["box"]; ok {
		box, err := parseBox(raw)
		if err != nil {
			return &MismatchError{Path: d.Path, XPath: xpath, Reason: err.Error()}
		}
		node.Box = box
	}

	// Text fragments inherit visual attributes from their container.
	if node.IsText() {
		return nil
	}
	if node.Visuals == nil {
		node.Visuals = make(map[string]float64, len(Attributes))
	}
	for _, attr := range Attributes {
		raw, ok := entry[attr.Key]
		if !ok || raw == nil {
			node.Visuals[attr.Name] = attr.Default
			continue
		}
		val, err := attr.Parse(raw)
		if err != nil {
			// Parse quirks are patched with the default, not fatal.
			d.log.Warn("cannot parse visual attribute",
				zap.String("attribute", attr.Name),
				zap.String("xpath", xpath),
				zap.String("path", d.Path),
				zap.Error(err))
			val = attr.Default
		}
		node.Visuals[attr.Name] = val
	}
	return nil
}

// find walks the entry tree by XPath segments.
func (d *DomData) find(xpath string) (map[string]any, error) {
	segments := strings.Split(xpath, "/")[1:]
	current := d.data
	for i, seg := range segments {
		next, ok := current["/"+seg].(map[string]any)
		if !ok {
			return nil, &MismatchError{
				Path:   d.Path,
				XPath:  "/" + strings.Join(segments[:i+1], "/"),
				Reason: fmt.Sprintf("no entry while searching for %s", xpath),
			}
		}
		current = next
	}
	return current, nil
}

// checkUnused fails on any entry that no DOM node consumed, skipping
// subtrees rooted at denylisted tags (the extraction tool sees them, the
// filtered DOM does not).
func (d *DomData) checkUnused(entry map[string]any, xpath string, consumed map[string]bool) error {
	if xpath != "" && !consumed[xpath] {
		// Text entries may legitimately go unused: whitespace-only fragments
		// are filtered out of the DOM but the extraction tool still sees
		// them in the browser.
		if segmentTag(xpath[strings.LastIndexByte(xpath, '/'):]) == "text()" {
			return nil
		}
		return &MismatchError{Path: d.Path, XPath: xpath, Reason: "unused visual attributes"}
	}
	for key, raw := range entry {
		if !strings.HasPrefix(key, "/") {
			continue
		}
		child, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if dom.IgnoredTag(segmentTag(key)) {
			continue
		}
		if err := d.checkUnused(child, xpath+key, consumed); err != nil {
			return err
		}
	}
	return nil
}

// segmentTag extracts "div" from "/div[2]".
func segmentTag(segment string) string {
	s := strings.TrimPrefix(segment, "/")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	return s
}

func parseBox(raw any) (*dom.BoundingBox, error) {
	vals, ok := raw.([]any)
	if !ok || len(vals) != 4 {
		return nil, fmt.Errorf("box is not a 4-tuple: %v", raw)
	}
	nums := make([]float64, 4)
	for i, v := range vals {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("box coordinate %d is not a number: %v", i, v)
		}
		nums[i] = f
	}
	return &dom.BoundingBox{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]}, nil
}
