package dataset

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/halcyon-data/domgraph/internal/dom"
	"github.com/halcyon-data/domgraph/internal/features"
	"github.com/halcyon-data/domgraph/internal/monitoring"
	"github.com/halcyon-data/domgraph/internal/visual"
)

// NeighborDistance selects the visual nearest-neighbor variant.
type NeighborDistance string

const (
	NeighborCenter NeighborDistance = "center"
	NeighborRect   NeighborDistance = "rect"
)

// ExtractorOptions control per-page graph construction and enrichment.
type ExtractorOptions struct {
	PropagateLabelsToLeaves bool

	// ClassifyOnlyTextNodes limits the sample's target mask to text nodes;
	// otherwise every included node is a target.
	ClassifyOnlyTextNodes bool

	// LabelKeys restricts labeling to these gold fields; nil means every
	// field the page declares.
	LabelKeys []string

	FriendCycles  bool
	FriendOptions dom.FriendOptions

	VisualNeighbors  bool
	NNeighbors       int
	NeighborDistance NeighborDistance

	// LoadVisuals applies the adapter's visual-attribute document to the
	// tree. RequireBoxes additionally makes a missing bounding box on a
	// labeled or text node fatal.
	LoadVisuals  bool
	RequireBoxes bool
}

// DefaultExtractorOptions returns the standard configuration.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		ClassifyOnlyTextNodes: true,
		FriendOptions:         dom.DefaultFriendOptions(),
		NNeighbors:            4,
		NeighborDistance:      NeighborRect,
	}
}

// PageError is one page's failure within a batch run.
type PageError struct {
	PageID string
	Phase  string
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s page %s: %v", e.Phase, e.PageID, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// RunErrors aggregates page failures of one batch run. The batch keeps
// going past failed pages; the caller decides whether to skip or abort.
type RunErrors struct {
	Pages []PageError
}

func (e *RunErrors) Error() string {
	msgs := make([]string, len(e.Pages))
	for i, pe := range e.Pages {
		msgs[i] = pe.Error()
	}
	return fmt.Sprintf("%d page(s) failed: %s", len(e.Pages), strings.Join(msgs, "; "))
}

// Extractor runs the two-phase feature lifecycle over pages and persists
// the resulting samples.
type Extractor struct {
	Root      *features.RootContext
	Features  []features.Feature
	Predicate features.Predicate
	Labels    *LabelMap
	Options   ExtractorOptions

	Log     *zap.Logger
	Metrics *monitoring.Metrics
}

// NewExtractor wires an extractor; log may be nil.
func NewExtractor(root *features.RootContext, feats []features.Feature, labels *LabelMap, opts ExtractorOptions, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		Root:     root,
		Features: feats,
		Labels:   labels,
		Options:  opts,
		Log:      log,
	}
}

// WillPrepare reports whether the page still needs the prepare phase.
func (e *Extractor) WillPrepare(p Page, force bool) bool {
	return force || !e.Root.HasPage(p.Identifier())
}

// WillCompute reports whether the page still needs a computed sample.
func (e *Extractor) WillCompute(p Page, force bool) bool {
	return force || !p.Slot().Exists()
}

// PrepareFeatures runs every feature's prepare step over every node of
// every page that needs it, then marks the page prepared. The phase
// mutates the shared root context and therefore runs strictly
// sequentially; no parallel variant exists by design.
func (e *Extractor) PrepareFeatures(ctx context.Context, pages []Page, force bool) error {
	var run RunErrors
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.WillPrepare(p, force) {
			e.Metrics.RecordSkipped("prepare")
			continue
		}
		start := time.Now()
		if err := e.prepareOne(p); err != nil {
			e.Metrics.RecordError("prepare")
			e.Log.Error("prepare failed",
				zap.String("page", p.Identifier()), zap.Error(err))
			run.Pages = append(run.Pages, PageError{
				PageID: p.Identifier(), Phase: "prepare", Err: err,
			})
			continue
		}
		e.Metrics.RecordPrepared(time.Since(start))
	}
	if len(run.Pages) > 0 {
		return &run
	}
	return nil
}

func (e *Extractor) prepareOne(p Page) error {
	pc, err := e.pageContext(p)
	if err != nil {
		return err
	}
	for _, node := range pc.Nodes() {
		features.PrepareNode(e.Features, node, e.Root)
	}
	e.Root.MarkPage(p.Identifier())
	return nil
}

// ComputeFeatures computes and persists a sample for every page that needs
// one. Pages are independent: workers share only the read-only frozen root
// context and write to disjoint cache slots, so no locking is required.
// Panics if the root context was not frozen; computing against an
// accumulating context is a programming error.
func (e *Extractor) ComputeFeatures(ctx context.Context, pages []Page, parallelism int, force bool) (int, error) {
	if !e.Root.Frozen() {
		panic("dataset: ComputeFeatures on an accumulating root context; call Freeze first")
	}
	if parallelism < 1 {
		parallelism = 1
	}

	var todo []Page
	for _, p := range pages {
		if e.WillCompute(p, force) {
			todo = append(todo, p)
		} else {
			e.Metrics.RecordSkipped("compute")
		}
	}

	jobs := make(chan Page)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var run RunErrors
	computed := 0

	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				start := time.Now()
				err := e.computeOne(p)
				mu.Lock()
				if err != nil {
					e.Metrics.RecordError("compute")
					e.Log.Error("compute failed",
						zap.String("page", p.Identifier()), zap.Error(err))
					run.Pages = append(run.Pages, PageError{
						PageID: p.Identifier(), Phase: "compute", Err: err,
					})
				} else {
					computed++
					e.Metrics.RecordComputed(time.Since(start))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, p := range todo {
		select {
		case jobs <- p:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return computed, err
	}
	if len(run.Pages) > 0 {
		// Sort for deterministic reporting; workers finish out of order.
		sort.Slice(run.Pages, func(i, j int) bool {
			return run.Pages[i].PageID < run.Pages[j].PageID
		})
		return computed, &run
	}
	return computed, nil
}

func (e *Extractor) computeOne(p Page) error {
	pc, err := e.pageContext(p)
	if err != nil {
		return err
	}
	nodes := pc.Nodes()

	if e.Options.RequireBoxes {
		for _, node := range nodes {
			if node.Box == nil && (node.IsText() || len(node.LabelKeys) > 0) {
				return &visual.MissingError{Path: p.Identifier(), XPath: node.XPath()}
			}
		}
	}

	sample := &Sample{
		X:          make([][]float64, len(nodes)),
		Y:          make([]int, len(nodes)),
		TargetMask: make([]bool, len(nodes)),
		Columns:    features.ColumnLabels(e.Features, e.Root),
	}
	for i, node := range nodes {
		sample.X[i] = features.ComputeRow(e.Features, node, pc)
		id, err := e.Labels.LabelOf(node.LabelKeys)
		if err != nil {
			return err
		}
		sample.Y[i] = id
		sample.TargetMask[i] = !e.Options.ClassifyOnlyTextNodes || node.IsText()
	}
	sample.Edges = buildEdges(nodes)

	data, err := sample.Encode()
	if err != nil {
		return err
	}
	return p.Slot().Write(data)
}

// buildEdges enumerates all qualifying child edges, then all qualifying
// parent edges, in that fixed order. Only nodes included in the current
// context (DatasetIndex assigned) participate.
func buildEdges(nodes []*dom.Node) [2][]int {
	var src, dst []int
	for _, node := range nodes {
		for _, child := range node.Children {
			if child.DatasetIndex == dom.NoDatasetIndex {
				continue
			}
			src = append(src, int(node.DatasetIndex))
			dst = append(dst, int(child.DatasetIndex))
		}
	}
	for _, node := range nodes {
		if node.Parent == nil || node.Parent.DatasetIndex == dom.NoDatasetIndex {
			continue
		}
		src = append(src, int(node.DatasetIndex))
		dst = append(dst, int(node.Parent.DatasetIndex))
	}
	return [2][]int{src, dst}
}

// pageContext builds one page's graph: DOM, labels, optional visuals and
// enrichment, then the filtered node list with dataset indices assigned.
func (e *Extractor) pageContext(p Page) (*features.PageContext, error) {
	tree, err := p.DOM()
	if err != nil {
		return nil, err
	}

	labels := p.Labels()
	keys := labels.LabelKeys()
	if len(e.Options.LabelKeys) > 0 {
		wanted := make(map[string]bool, len(e.Options.LabelKeys))
		for _, key := range e.Options.LabelKeys {
			wanted[key] = true
		}
		kept := make([]string, 0, len(keys))
		for _, key := range keys {
			if wanted[key] {
				kept = append(kept, key)
			}
		}
		keys = kept
	}
	assignments := make([]dom.LabelAssignment, 0, len(keys))
	for _, key := range keys {
		paths, err := labels.LabeledNodes(key)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, dom.LabelAssignment{Key: key, Paths: paths})
	}
	if err := tree.InitLabels(assignments, e.Options.PropagateLabelsToLeaves); err != nil {
		return nil, err
	}

	if e.Options.LoadVisuals {
		raw, err := p.VisualsJSON()
		if err != nil {
			return nil, err
		}
		if raw != nil {
			data, err := visual.Load(raw, p.Identifier(), e.Log)
			if err != nil {
				return nil, err
			}
			if err := data.ApplyAll(tree); err != nil {
				return nil, err
			}
		}
	}

	if e.Options.FriendCycles {
		tree.ComputeFriendCycles(e.Options.FriendOptions)
	}
	if e.Options.VisualNeighbors {
		switch e.Options.NeighborDistance {
		case NeighborCenter:
			tree.ComputeVisualNeighbors(e.Options.NNeighbors)
		default:
			tree.ComputeVisualNeighborsRect(e.Options.NNeighbors)
		}
	}

	pc := features.NewPageContext(e.Root, tree, e.Predicate)
	pc.Nodes()
	return pc, nil
}

// DeleteSaved invalidates cached samples for the given pages. With backup,
// entries are renamed aside instead of removed. Idempotent; returns the
// number of entries affected.
func (e *Extractor) DeleteSaved(pages []Page, backup bool) (int, error) {
	count := 0
	for _, p := range pages {
		existed, err := p.Slot().Delete(backup)
		if err != nil {
			return count, fmt.Errorf("delete sample for page %s: %w", p.Identifier(), err)
		}
		if existed {
			count++
		}
	}
	e.Metrics.RecordDeleted(count)
	return count, nil
}
