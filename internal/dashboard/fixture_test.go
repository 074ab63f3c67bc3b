package dashboard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
	"github.com/atalyaalon/patents-topic-modeling/internal/topicmodel"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

func fixturePatents() ([]patent.Patent, [][]float32) {
	day := func(y int) time.Time { return time.Date(y, 3, 1, 0, 0, 0, 0, time.UTC) }
	patents := []patent.Patent{
		{ID: "14000001", PatentNumber: "9000001", Title: "Drone rotor assembly", FilingDate: day(2015), TopicID: 0, TopicProb: 0.9},
		{ID: "14000002", PatentNumber: "9000002", Title: "Aerial vehicle propeller guard", FilingDate: day(2016), TopicID: 0, TopicProb: 0.8},
		{ID: "14000003", PatentNumber: "9000003", Title: "Battery cooling plate", FilingDate: day(2016), TopicID: 1, TopicProb: 0.7},
		{ID: "14000004", PatentNumber: "9000004", Title: "Generic apparatus", FilingDate: day(2016), TopicID: patent.NoTopic, TopicProb: 0.2},
	}
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {0.7, 0.7}}
	return patents, vectors
}

func fixtureTopics() []patent.Topic {
	return []patent.Topic{
		{ID: patent.NoTopic, Count: 1},
		{ID: 0, Count: 2, Keywords: []patent.Keyword{
			{Word: "drone", Weight: 0.3}, {Word: "aerial", Weight: 0.2}, {Word: "rotor", Weight: 0.15},
			{Word: "propeller", Weight: 0.1}, {Word: "flight", Weight: 0.08}, {Word: "vehicle", Weight: 0.05},
		}},
		{ID: 1, Count: 1, Keywords: []patent.Keyword{{Word: "battery", Weight: 0.4}, {Word: "cooling", Weight: 0.3}}},
	}
}

// writeFixture writes an artifact set under root/<prefix> and returns the directory.
func writeFixture(t *testing.T, root, prefix string, patents []patent.Patent, vectors [][]float32, topics []patent.Topic) string {
	t.Helper()
	d := artifact.Dir(filepath.Join(root, prefix))

	ids := make([]string, len(patents))
	for i, p := range patents {
		ids[i] = p.ID
	}
	idx, err := vecindex.Build(ids, vectors, vecindex.MetricCosine)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(d.Path(artifact.KeyIndex)); err != nil {
		t.Fatal(err)
	}

	db, err := storage.OpenDB(d.Path(artifact.KeyDatabase))
	if err != nil {
		t.Fatal(err)
	}
	if err := db.WriteRun(patents, topics); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	tm := &topicmodel.TopicMap{Points: []topicmodel.MapPoint{{ID: "14000001", X: 1.5, Y: -2, TopicID: 0}}}
	if err := artifact.WriteJSON(d.Path(artifact.KeyTopicMap), tm); err != nil {
		t.Fatal(err)
	}
	m := artifact.NewManifest("sample", "train")
	if err := artifact.WriteManifest(d.Path(artifact.KeyManifest), m); err != nil {
		t.Fatal(err)
	}
	return string(d)
}

func openFixture(t *testing.T) *Artifacts {
	t.Helper()
	patents, vectors := fixturePatents()
	dir := writeFixture(t, t.TempDir(), "outputs_sample", patents, vectors, fixtureTopics())
	a, err := OpenArtifacts("outputs_sample", dir)
	if err != nil {
		t.Fatalf("OpenArtifacts() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}
