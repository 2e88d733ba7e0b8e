// Package jsonset is a dataset adapter for JSON-annotated page dumps.
//
// A split directory holds one triple per page:
//
//	<name>.html          raw (localized) page HTML
//	<name>.json          metadata: gold values plus "selector_<field>"
//	                     entries carrying a CSS or XPath selector
//	<name>.visuals.json  optional visual-attribute document
//
// Selectors starting with "/" are treated as XPath (htmlquery); everything
// else as CSS (goquery). Computed samples land in a cache directory beside
// the pages.
package jsonset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/halcyon-data/domgraph/internal/dataset"
	"github.com/halcyon-data/domgraph/internal/dom"
)

const (
	selectorPrefix = "selector_"
	sampleSuffix   = ".sample.zst"
	visualsSuffix  = ".visuals.json"
)

// Options configure one split directory.
type Options struct {
	// Dir is the split directory to scan.
	Dir string

	// CacheDir receives computed samples; defaults to Dir/.cache.
	CacheDir string

	Log *zap.Logger
}

// Dataset is one opened split directory.
type Dataset struct {
	opts  Options
	Pages []*Page
}

// Open scans a split directory for page triples.
func Open(opts Options) (*Dataset, error) {
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(opts.Dir, ".cache")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	var mu sync.Mutex
	var htmlPaths []string
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Cache directories hold samples, not pages.
			if d.Name() == filepath.Base(opts.CacheDir) || strings.HasPrefix(d.Name(), ".") {
				if path != opts.Dir {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !strings.HasSuffix(path, ".html") {
			return nil
		}
		if mtype, err := mimetype.DetectFile(path); err == nil && !mtype.Is("text/html") {
			return nil
		}
		mu.Lock()
		htmlPaths = append(htmlPaths, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", opts.Dir, err)
	}
	sort.Strings(htmlPaths)

	ds := &Dataset{opts: opts}
	for _, htmlPath := range htmlPaths {
		name := strings.TrimSuffix(filepath.Base(htmlPath), ".html")
		metaPath := strings.TrimSuffix(htmlPath, ".html") + ".json"
		if _, err := os.Stat(metaPath); err != nil {
			return nil, fmt.Errorf("page %s has no metadata file: %w", htmlPath, err)
		}
		ds.Pages = append(ds.Pages, &Page{
			ds:          ds,
			name:        name,
			htmlPath:    htmlPath,
			metaPath:    metaPath,
			visualsPath: strings.TrimSuffix(htmlPath, ".html") + visualsSuffix,
			slot:        dataset.FileSlot(filepath.Join(opts.CacheDir, name+sampleSuffix)),
		})
	}
	return ds, nil
}

// DatasetPages adapts the concrete page list to the dataset interface.
func (ds *Dataset) DatasetPages() []dataset.Page {
	out := make([]dataset.Page, len(ds.Pages))
	for i, p := range ds.Pages {
		out[i] = p
	}
	return out
}

// Page is one JSON-annotated page dump.
type Page struct {
	ds          *Dataset
	name        string
	htmlPath    string
	metaPath    string
	visualsPath string
	slot        dataset.Slot

	mu   sync.Mutex
	meta map[string]any
	tree *dom.Tree
}

var _ dataset.Page = (*Page)(nil)

// Identifier is the page's stable cache key.
func (p *Page) Identifier() string { return p.name }

// HTMLText reads the raw page HTML.
func (p *Page) HTMLText() (string, error) {
	data, err := os.ReadFile(p.htmlPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DOM parses, builds and filters the page's tree, cached per page.
func (p *Page) DOM() (*dom.Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tree != nil {
		return p.tree, nil
	}
	htmlText, err := p.HTMLText()
	if err != nil {
		return nil, err
	}
	tree, err := dom.Parse(htmlText)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", p.name, err)
	}
	tree.InitNodes()
	tree.FilterNodes()
	p.tree = tree
	return tree, nil
}

func (p *Page) metadata() (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.meta != nil {
		return p.meta, nil
	}
	data, err := os.ReadFile(p.metaPath)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := sonic.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("page %s: decode metadata: %w", p.name, err)
	}
	p.meta = meta
	return meta, nil
}

// Fields returns the gold field names with a non-empty selector, sorted for
// a stable label-key order.
func (p *Page) Fields() []string {
	meta, err := p.metadata()
	if err != nil {
		return nil
	}
	var fields []string
	for key, val := range meta {
		if !strings.HasPrefix(key, selectorPrefix) {
			continue
		}
		if sel, _ := val.(string); sel != "" {
			fields = append(fields, strings.TrimPrefix(key, selectorPrefix))
		}
	}
	sort.Strings(fields)
	return fields
}

// Labels exposes the page's gold annotations.
func (p *Page) Labels() dataset.Labels { return &pageLabels{page: p} }

// VisualsJSON reads the page's visual-attribute document, or nil when the
// page has none.
func (p *Page) VisualsJSON() ([]byte, error) {
	data, err := os.ReadFile(p.visualsPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// Slot is the page's cache slot.
func (p *Page) Slot() dataset.Slot { return p.slot }

type pageLabels struct {
	page *Page
}

func (l *pageLabels) LabelKeys() []string { return l.page.Fields() }

// LabeledNodes resolves the field's selector to index paths against the
// page's tree.
func (l *pageLabels) LabeledNodes(key string) ([][]int, error) {
	p := l.page
	meta, err := p.metadata()
	if err != nil {
		return nil, err
	}
	selector, _ := meta[selectorPrefix+key].(string)
	if selector == "" {
		// An empty selector must come with an empty gold value.
		if val, ok := meta[key]; ok && !emptyValue(val) {
			return nil, fmt.Errorf("page %s: field %q has a gold value but no selector", p.name, key)
		}
		return nil, nil
	}

	// Some selector engines mishandle the sibling combinator; the general
	// sibling form matches a superset and is safe for these datasets.
	if strings.Contains(selector, " + ") {
		patched := strings.ReplaceAll(selector, " + ", " ~ ")
		p.ds.opts.Log.Warn("patched selector",
			zap.String("page", p.name),
			zap.String("from", selector),
			zap.String("to", patched))
		selector = patched
	}

	tree, err := p.DOM()
	if err != nil {
		return nil, err
	}

	matches, err := p.selectNodes(tree, selector)
	if err != nil {
		return nil, fmt.Errorf("page %s: invalid selector %q for field %q: %w",
			p.name, selector, key, err)
	}
	if len(matches) == 0 {
		// Annotation drift: the selector no longer matches anything.
		p.ds.opts.Log.Warn("selector matched no nodes",
			zap.String("page", p.name),
			zap.String("field", key),
			zap.String("selector", selector))
		return nil, nil
	}

	paths := make([][]int, 0, len(matches))
	for _, node := range matches {
		paths = append(paths, node.IndexPath())
	}
	return paths, nil
}

func (p *Page) selectNodes(tree *dom.Tree, selector string) ([]*dom.Node, error) {
	var out []*dom.Node
	if strings.HasPrefix(selector, "/") {
		parsed, err := htmlquery.QueryAll(tree.Doc(), selector)
		if err != nil {
			return nil, err
		}
		for _, pn := range parsed {
			if node := tree.NodeByParsed(pn); node != nil {
				out = append(out, node)
			}
		}
		return out, nil
	}

	doc := goquery.NewDocumentFromNode(tree.Doc())
	var selErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				selErr = fmt.Errorf("selector panic: %v", r)
			}
		}()
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			for _, pn := range s.Nodes {
				if node := tree.NodeByParsed(pn); node != nil {
					out = append(out, node)
				}
			}
		})
	}()
	if selErr != nil {
		return nil, selErr
	}
	return out, nil
}

func emptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	default:
		return false
	}
}
