package topicmodel

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
)

func corpus() []string {
	drones := []string{
		"Unmanned aerial vehicle drone with rotor propellers for parcel delivery",
		"Drone rotor assembly for aerial vehicle flight stability",
		"Aerial drone landing gear and propeller guard",
		"Delivery drone flight controller for unmanned aerial vehicle",
		"Propeller drone with aerial camera gimbal",
		"Unmanned aerial vehicle with rotor arms and flight battery",
	}
	batteries := []string{
		"Lithium battery cell with liquid cooling plate",
		"Battery pack thermal management with cooling channels",
		"Electrode coating for lithium ion battery cell",
		"Battery cell electrolyte additive improving lithium cycling",
		"Cooling system for battery pack of electric vehicle",
		"Lithium ion cell cathode electrode material",
	}
	return append(drones, batteries...)
}

func TestFit(t *testing.T) {
	docs := corpus()
	result, err := Fit(docs, Options{Topics: 2, Iterations: 30, MinTopicProb: 0.01, Processes: 1})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(result.Assignments) != len(docs) {
		t.Fatalf("got %d assignments, want %d", len(result.Assignments), len(docs))
	}
	for i, a := range result.Assignments {
		if a.Prob < 0 || a.Prob > 1 {
			t.Errorf("assignment %d prob %v outside [0,1]", i, a.Prob)
		}
		if a.TopicID < patent.NoTopic || a.TopicID > 1 {
			t.Errorf("assignment %d has topic %d", i, a.TopicID)
		}
	}

	total := 0
	var real []patent.Topic
	for _, topic := range result.Topics {
		total += topic.Count
		if topic.ID != patent.NoTopic {
			real = append(real, topic)
		}
	}
	if total != len(docs) {
		t.Errorf("topic counts sum to %d, want %d", total, len(docs))
	}
	if len(real) != 2 {
		t.Fatalf("got %d topics, want 2", len(real))
	}
	if real[0].ID != 0 || real[1].ID != 1 {
		t.Errorf("topic IDs = %d, %d; want 0, 1", real[0].ID, real[1].ID)
	}
	if real[0].Count < real[1].Count {
		t.Errorf("topic 0 (%d docs) should be at least as large as topic 1 (%d docs)", real[0].Count, real[1].Count)
	}

	for _, topic := range real {
		if len(topic.Keywords) == 0 || len(topic.Keywords) > DefaultTopWords {
			t.Errorf("topic %d has %d keywords", topic.ID, len(topic.Keywords))
		}
		for i := 1; i < len(topic.Keywords); i++ {
			if topic.Keywords[i].Weight > topic.Keywords[i-1].Weight {
				t.Errorf("topic %d keywords not sorted: %v", topic.ID, topic.Keywords)
			}
		}
		for _, kw := range topic.Keywords {
			for _, stop := range []string{"the", "with", "for", "and"} {
				if kw.Word == stop {
					t.Errorf("topic %d keeps stop word %q", topic.ID, stop)
				}
			}
		}
	}
}

func TestFit_AllOutliers(t *testing.T) {
	docs := corpus()
	result, err := Fit(docs, Options{Topics: 2, Iterations: 10, MinTopicProb: 1.01, Processes: 1})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for i, a := range result.Assignments {
		if a.TopicID != patent.NoTopic {
			t.Errorf("assignment %d = topic %d, want outlier", i, a.TopicID)
		}
		if a.Prob <= 0 {
			t.Errorf("outlier %d should keep its best topic probability, got %v", i, a.Prob)
		}
	}
	if result.Topics[0].ID != patent.NoTopic || result.Topics[0].Count != len(docs) {
		t.Errorf("first topic = %+v, want outlier topic with all documents", result.Topics[0])
	}
}

func TestFit_Errors(t *testing.T) {
	if _, err := Fit(corpus(), Options{Topics: 1}); err == nil {
		t.Error("expected error for a single topic")
	}
	_, err := Fit([]string{"one doc"}, Options{Topics: 3})
	if !errors.Is(err, ErrTooFewDocuments) {
		t.Errorf("expected ErrTooFewDocuments, got %v", err)
	}
}

func TestAssign(t *testing.T) {
	// 2 topics x 3 docs
	m := mat.NewDense(2, 3, []float64{
		0.9, 0.5, 0,
		0.1, 0.5, 0,
	})
	got := assign(m, 0.6)

	if got[0].TopicID != 0 || math.Abs(got[0].Prob-0.9) > 1e-9 {
		t.Errorf("doc 0 = %+v, want topic 0 with 0.9", got[0])
	}
	if got[1].TopicID != patent.NoTopic || math.Abs(got[1].Prob-0.5) > 1e-9 {
		t.Errorf("doc 1 = %+v, want outlier with 0.5", got[1])
	}
	if got[2].TopicID != patent.NoTopic || got[2].Prob != 0 {
		t.Errorf("doc 2 = %+v, want outlier with 0", got[2])
	}
}

func TestRankTopics(t *testing.T) {
	assignments := []Assignment{{TopicID: 2}, {TopicID: 2}, {TopicID: 0}, {TopicID: patent.NoTopic}}
	order := rankTopics(assignments, 3)
	// LDA topic 2 is largest, then 0, then the empty topic 1.
	want := []int{1, 2, 0}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("rankTopics = %v, want %v", order, want)
		}
	}
}

func TestTopKeywords(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 3, 0})
	kws := topKeywords(m, map[string]int{"cell": 0, "battery": 1, "drone": 2}, 2)
	if len(kws[0]) != 2 || kws[0][0].Word != "battery" || kws[0][1].Word != "cell" {
		t.Fatalf("topKeywords = %v", kws[0])
	}
	if math.Abs(kws[0][0].Weight-0.75) > 1e-9 {
		t.Errorf("battery weight = %v, want 0.75", kws[0][0].Weight)
	}
}

func TestApply(t *testing.T) {
	patents := []patent.Patent{{ID: "a"}, {ID: "b"}}
	r := &Result{Assignments: []Assignment{{TopicID: 3, Prob: 0.7}, {TopicID: patent.NoTopic, Prob: 0.1}}}
	if err := Apply(patents, r); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if patents[0].TopicID != 3 || patents[1].HasTopic() {
		t.Errorf("Apply produced %+v", patents)
	}
	if err := Apply(patents[:1], r); err == nil {
		t.Error("expected length mismatch error")
	}
}
