package topicmodel

import (
	"fmt"
	"math"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

// t-SNE settings for the topic map.
const (
	DefaultMapPoints  = 2000
	DefaultPerplexity = 30
	mapLearningRate   = 200
	mapIterations     = 300
)

// MapPoint is one patent on the 2-D topic map.
type MapPoint struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TopicID int     `json:"topic_id"`
}

// TopicMap is a 2-D projection of a sample of embeddings.
type TopicMap struct {
	Points []MapPoint `json:"points"`
}

// sampleRows picks at most n evenly spaced rows out of total.
func sampleRows(total, n int) []int {
	if n <= 0 || n >= total {
		rows := make([]int, total)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i * total / n
	}
	return rows
}

// ProjectTopicMap projects up to maxPoints embeddings to two dimensions with t-SNE.
// ids, vectors and topicIDs are parallel slices in index order.
func ProjectTopicMap(ids []string, vectors [][]float32, topicIDs []int, maxPoints int) (*TopicMap, error) {
	if len(ids) != len(vectors) || len(ids) != len(topicIDs) {
		return nil, fmt.Errorf("topic map inputs differ in length: %d ids, %d vectors, %d topics", len(ids), len(vectors), len(topicIDs))
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMapPoints
	}

	rows := sampleRows(len(ids), maxPoints)
	if len(rows) < 4 {
		return nil, fmt.Errorf("need at least 4 points for a topic map, got %d", len(rows))
	}
	dims := len(vectors[0])

	data := make([]float64, 0, len(rows)*dims)
	for _, r := range rows {
		if len(vectors[r]) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d", r, len(vectors[r]), dims)
		}
		for _, x := range vectors[r] {
			data = append(data, float64(x))
		}
	}
	X := mat.NewDense(len(rows), dims, data)

	// Perplexity must stay well below the number of points.
	perplexity := min(float64(DefaultPerplexity), float64(len(rows)-1)/3)

	t := tsne.NewTSNE(2, perplexity, mapLearningRate, mapIterations, false)
	t.EmbedData(X, nil)

	m := &TopicMap{Points: make([]MapPoint, len(rows))}
	for i, r := range rows {
		x, y := t.Y.At(i, 0), t.Y.At(i, 1)
		if math.IsNaN(x) || math.IsNaN(y) {
			return nil, fmt.Errorf("projection diverged at point %d", i)
		}
		m.Points[i] = MapPoint{ID: ids[r], X: x, Y: y, TopicID: topicIDs[r]}
	}
	return m, nil
}
