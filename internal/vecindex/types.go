// Package vecindex provides an exact nearest-neighbor index over patent embeddings.
//
// An Index is built once from a fixed set of vectors and is read-only afterwards.
// Row i of the index always corresponds to the i-th identifier passed to Build,
// which is the ordering of the patents in the run that produced the embeddings.
package vecindex

import (
	"errors"
	"fmt"
)

// Errors returned by index construction and queries.
var (
	ErrEmptyIndex         = errors.New("similarity index is empty")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrInvalidK           = errors.New("k must be a positive integer")
	ErrNotIndexed         = errors.New("patent not in similarity index")
	ErrDuplicateID        = errors.New("duplicate identifier")
	ErrIndexNotFound      = errors.New("similarity index not found")
	ErrUnsupportedVersion = errors.New("unsupported index version")
)

// Metric selects the distance function of an index.
type Metric string

const (
	// MetricL2 is the Euclidean distance (not squared).
	MetricL2 Metric = "l2"

	// MetricCosine is 1 - cosine similarity. Vectors are normalized at build time.
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricL2, MetricCosine:
		return Metric(s), nil
	case "":
		return MetricL2, nil
	default:
		return "", fmt.Errorf("unknown metric %q: must be l2 or cosine", s)
	}
}

// Neighbor is one result of a similarity query.
type Neighbor struct {
	ID       string  `json:"id"`
	Position int     `json:"position"` // Row of the patent in the index
	Distance float64 `json:"distance"`
}
