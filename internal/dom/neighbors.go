package dom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// VisualNeighbor is one entry of a node's ranked visual-neighbor list.
// DistanceX/DistanceY are signed center offsets, neighbor minus node.
type VisualNeighbor struct {
	Distance  float64
	DistanceX float64
	DistanceY float64
	Neighbor  *Node
}

func newVisualNeighbor(distance float64, node, neighbor *Node) VisualNeighbor {
	nc := node.Box.Center()
	cc := neighbor.Box.Center()
	return VisualNeighbor{
		Distance:  distance,
		DistanceX: cc[0] - nc[0],
		DistanceY: cc[1] - nc[1],
		Neighbor:  neighbor,
	}
}

// ComputeVisualNeighbors ranks, for every text node with a bounding box, the
// nNeighbors visually closest such nodes by Euclidean distance between box
// centers. A node never appears as its own neighbor; results are sorted by
// distance ascending.
func (t *Tree) ComputeVisualNeighbors(nNeighbors int) {
	targets := t.visualTargets()
	if len(targets) < 2 {
		return
	}

	points := make(nodePoints, len(targets))
	for i, n := range targets {
		points[i] = nodePoint{vec: n.Box.Center(), node: n}
	}
	tree := kdtree.New(points, false)

	for _, node := range targets {
		query := nodePoint{vec: node.Box.Center(), node: node}

		// The 0th neighbor is the node itself, so ask for one more.
		keep := kdtree.NewNKeeper(nNeighbors + 1)
		tree.NearestSet(keep, query)

		found := sortedHits(keep)
		neighbors := make([]VisualNeighbor, 0, nNeighbors)
		for _, hit := range found {
			if hit.node == node {
				continue
			}
			neighbors = append(neighbors, newVisualNeighbor(hit.dist, node, hit.node))
			if len(neighbors) == nNeighbors {
				break
			}
		}
		node.VisualNeighbors = neighbors
	}
}

// ComputeVisualNeighborsRect is the corner variant: each candidate expands
// to its four corner points, every corner is queried for 4*(nNeighbors+1)
// nearest corner points, the per-corner results are merged and sorted by
// distance, de-duplicated by target node (closest occurrence wins), the
// self entry is dropped, and the next nNeighbors are kept.
func (t *Tree) ComputeVisualNeighborsRect(nNeighbors int) {
	targets := t.visualTargets()
	if len(targets) < 2 {
		return
	}

	points := make(nodePoints, 0, len(targets)*4)
	for _, n := range targets {
		for _, c := range n.Box.Corners() {
			points = append(points, nodePoint{vec: c, node: n})
		}
	}
	tree := kdtree.New(points, false)

	for _, node := range targets {
		var merged []hit
		for _, corner := range node.Box.Corners() {
			query := nodePoint{vec: corner, node: node}
			keep := kdtree.NewNKeeper((nNeighbors + 1) * 4)
			tree.NearestSet(keep, query)
			merged = append(merged, sortedHits(keep)...)
		}
		sort.Slice(merged, func(i, j int) bool { return merged[i].dist < merged[j].dist })

		seen := make(map[*Node]bool, nNeighbors+1)
		neighbors := make([]VisualNeighbor, 0, nNeighbors)
		for _, h := range merged {
			if h.node == node || seen[h.node] {
				continue
			}
			seen[h.node] = true
			neighbors = append(neighbors, newVisualNeighbor(h.dist, node, h.node))
			if len(neighbors) == nNeighbors {
				break
			}
		}
		node.VisualNeighbors = neighbors
	}
}

func (t *Tree) visualTargets() []*Node {
	var out []*Node
	for _, n := range t.Nodes {
		if n.IsText() && n.Box != nil {
			out = append(out, n)
		}
	}
	return out
}

type hit struct {
	dist float64
	node *Node
}

// sortedHits extracts keeper results sorted by Euclidean distance ascending.
// The keeper heap holds squared distances and may contain the unfilled
// sentinel.
func sortedHits(keep *kdtree.NKeeper) []hit {
	out := make([]hit, 0, keep.Heap.Len())
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		p := cd.Comparable.(nodePoint)
		out = append(out, hit{dist: math.Sqrt(cd.Dist), node: p.node})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dist < out[j].dist })
	return out
}

// nodePoint adapts a node's 2D point to the kdtree interfaces. Distance is
// squared Euclidean, matching gonum's kdtree.Point convention.
type nodePoint struct {
	vec  [2]float64
	node *Node
}

func (p nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nodePoint)
	return p.vec[d] - q.vec[d]
}

func (p nodePoint) Dims() int { return 2 }

func (p nodePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(nodePoint)
	dx := p.vec[0] - q.vec[0]
	dy := p.vec[1] - q.vec[1]
	return dx*dx + dy*dy
}

type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable { return p[i] }

func (p nodePoints) Len() int { return len(p) }

func (p nodePoints) Pivot(d kdtree.Dim) int {
	return nodePlane{nodePoints: p, Dim: d}.Pivot()
}

func (p nodePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// nodePlane sorts nodePoints along one dimension for pivot selection.
type nodePlane struct {
	nodePoints
	kdtree.Dim
}

func (p nodePlane) Less(i, j int) bool {
	return p.nodePoints[i].vec[p.Dim] < p.nodePoints[j].vec[p.Dim]
}

func (p nodePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodePoints = p.nodePoints[start:end]
	return p
}

func (p nodePlane) Swap(i, j int) {
	p.nodePoints[i], p.nodePoints[j] = p.nodePoints[j], p.nodePoints[i]
}
