package vecindex

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Index is an immutable exact k-nearest-neighbor index.
type Index struct {
	metric    Metric
	dims      int
	ids       []string
	positions map[string]int
	rows      *mat.Dense // nil when the index is empty
}

// Build creates an index over vectors. ids[i] names vectors[i].
//
// An empty input yields an empty index, which rejects all queries with ErrEmptyIndex.
func Build(ids []string, vectors [][]float32, metric Metric) (*Index, error) {
	if metric == "" {
		metric = MetricL2
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}

	idx := &Index{
		metric:    metric,
		ids:       make([]string, len(ids)),
		positions: make(map[string]int, len(ids)),
	}
	copy(idx.ids, ids)

	if len(vectors) == 0 {
		return idx, nil
	}

	idx.dims = len(vectors[0])
	if idx.dims == 0 {
		return nil, fmt.Errorf("%w: vectors have zero length", ErrDimensionMismatch)
	}

	data := make([]float64, 0, len(vectors)*idx.dims)
	for i, v := range vectors {
		if len(v) != idx.dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), idx.dims)
		}
		if _, exists := idx.positions[ids[i]]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ids[i])
		}
		idx.positions[ids[i]] = i

		row := toFloat64(v)
		if metric == MetricCosine {
			normalize(row)
		}
		data = append(data, row...)
	}
	idx.rows = mat.NewDense(len(vectors), idx.dims, data)

	return idx, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Dimensions returns the vector dimensionality, 0 for an empty index.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Metric returns the distance metric of the index.
func (idx *Index) Metric() Metric {
	return idx.metric
}

// IDs returns a copy of the identifiers in row order.
func (idx *Index) IDs() []string {
	out := make([]string, len(idx.ids))
	copy(out, idx.ids)
	return out
}

// ID returns the identifier stored at row i.
func (idx *Index) ID(i int) string {
	return idx.ids[i]
}

// Position returns the row of id.
func (idx *Index) Position(id string) (int, bool) {
	pos, ok := idx.positions[id]
	return pos, ok
}

// Has reports whether id is indexed.
func (idx *Index) Has(id string) bool {
	_, ok := idx.positions[id]
	return ok
}

// Vector returns a copy of the stored vector at row i.
// For cosine indexes this is the normalized vector.
func (idx *Index) Vector(i int) []float32 {
	row := idx.rows.RawRowView(i)
	out := make([]float32, len(row))
	for j, x := range row {
		out[j] = float32(x)
	}
	return out
}

// Similarity converts a distance into a similarity score:
// cosine similarity for cosine indexes, 1/(1+d) for L2.
func (idx *Index) Similarity(distance float64) float64 {
	if idx.metric == MetricCosine {
		return 1 - distance
	}
	return 1 / (1 + distance)
}

// distance computes the metric between a prepared query and row i.
func (idx *Index) distance(query []float64, i int) float64 {
	row := idx.rows.RawRowView(i)
	if idx.metric == MetricCosine {
		return 1 - floats.Dot(query, row)
	}
	return floats.Distance(query, row, 2)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// normalize scales v to unit length in place. Zero vectors are left unchanged.
func normalize(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}
