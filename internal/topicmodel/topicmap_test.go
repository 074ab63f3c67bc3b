package topicmodel

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSampleRows(t *testing.T) {
	if diff := cmp.Diff([]int{0, 1, 2}, sampleRows(3, 10)); diff != "" {
		t.Errorf("sampleRows(3, 10) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2, 5, 7}, sampleRows(10, 4)); diff != "" {
		t.Errorf("sampleRows(10, 4) mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectTopicMap(t *testing.T) {
	var ids []string
	var vectors [][]float32
	var topics []int
	for i := 0; i < 20; i++ {
		ids = append(ids, string(rune('a'+i)))
		v := []float32{float32(i % 2), float32(i) / 20, 1}
		vectors = append(vectors, v)
		topics = append(topics, i%2)
	}

	m, err := ProjectTopicMap(ids, vectors, topics, 12)
	if err != nil {
		t.Fatalf("ProjectTopicMap failed: %v", err)
	}
	if len(m.Points) != 12 {
		t.Fatalf("got %d points, want 12", len(m.Points))
	}
	for _, p := range m.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Errorf("point %s has NaN coordinates", p.ID)
		}
	}
	if m.Points[0].ID != "a" || m.Points[0].TopicID != 0 {
		t.Errorf("first point = %+v", m.Points[0])
	}
}

func TestProjectTopicMap_Errors(t *testing.T) {
	if _, err := ProjectTopicMap([]string{"a"}, nil, nil, 10); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := ProjectTopicMap([]string{"a", "b"}, [][]float32{{1}, {2}}, []int{0, 0}, 10); err == nil {
		t.Error("expected error for too few points")
	}
}
