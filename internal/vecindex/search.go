package vecindex

import (
	"container/heap"
	"fmt"
	"sort"
)

// Search returns the k nearest vectors to query, closest first.
//
// The result has min(k, Len()) entries ordered by non-decreasing distance;
// equal distances are ordered by row, so earlier insertions rank first.
func (idx *Index) Search(query []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if idx.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), idx.dims)
	}

	q := toFloat64(query)
	if idx.metric == MetricCosine {
		normalize(q)
	}
	return idx.topK(q, k, -1), nil
}

// SearchByID returns the k nearest neighbors of an indexed patent, excluding the patent itself.
func (idx *Index) SearchByID(id string, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if idx.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	pos, ok := idx.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, id)
	}

	q := make([]float64, idx.dims)
	copy(q, idx.rows.RawRowView(pos))
	return idx.topK(q, k, pos), nil
}

// topK scans every row and keeps the k best, skipping row exclude.
func (idx *Index) topK(query []float64, k, exclude int) []Neighbor {
	h := make(neighborHeap, 0, k+1)
	for i := 0; i < idx.Len(); i++ {
		if i == exclude {
			continue
		}
		n := Neighbor{ID: idx.ids[i], Position: i, Distance: idx.distance(query, i)}
		if len(h) < k {
			heap.Push(&h, n)
			continue
		}
		if closer(n, h[0]) {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}

	results := []Neighbor(h)
	sort.Slice(results, func(i, j int) bool {
		return closer(results[i], results[j])
	})
	return results
}

// closer orders neighbors by distance, then by row.
func closer(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// neighborHeap is a max-heap: the root is the worst of the kept neighbors.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return closer(h[j], h[i]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x interface{}) {
	*h = append(*h, x.(Neighbor))
}

func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
