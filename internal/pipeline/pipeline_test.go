package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/embedding"
	"github.com/atalyaalon/patents-topic-modeling/internal/hupd"
	"github.com/atalyaalon/patents-topic-modeling/internal/objstore"
	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
	"github.com/atalyaalon/patents-topic-modeling/internal/topicmodel"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

type fakeLoader struct {
	patents []patent.Patent
	err     error
}

func (f *fakeLoader) Load(ctx context.Context, split hupd.Split, datasetType string) ([]patent.Patent, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]patent.Patent, len(f.patents))
	copy(out, f.patents)
	return out, nil
}

// bagProvider hashes words into a small fixed number of buckets.
type bagProvider struct {
	dims  int
	fail  bool
	calls int
}

func (b *bagProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	b.calls++
	if b.fail {
		return embedding.Embedding{}, errors.New("model not loaded")
	}
	v := make([]float32, b.dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(b.dims)]++
	}
	return embedding.Embedding{Vector: v}, nil
}

func (b *bagProvider) ModelName() string { return "bag-of-words" }
func (b *bagProvider) Dimensions() int   { return b.dims }

type recorder struct {
	stages   []Stage
	progress map[Stage]int
}

func (r *recorder) OnStage(stage Stage) {
	r.stages = append(r.stages, stage)
}

func (r *recorder) OnProgress(stage Stage, current, total int) {
	if r.progress == nil {
		r.progress = map[Stage]int{}
	}
	r.progress[stage] = current
}

func testPatents() []patent.Patent {
	texts := []string{
		"Unmanned aerial vehicle drone with rotor propellers",
		"Drone rotor assembly for aerial flight stability",
		"Aerial drone landing gear and propeller guard",
		"Delivery drone flight controller for aerial vehicle",
		"Propeller drone with aerial camera gimbal",
		"Unmanned aerial vehicle with rotor arms",
		"Lithium battery cell with liquid cooling plate",
		"Battery pack thermal management with cooling channels",
		"Electrode coating for lithium ion battery cell",
		"Battery cell electrolyte additive for lithium cycling",
		"Cooling system for battery pack",
		"Lithium ion cell cathode electrode material",
	}
	base := time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC)
	out := make([]patent.Patent, len(texts))
	for i, text := range texts {
		out[i] = patent.Patent{
			ID:           fmt.Sprintf("149%05d", i),
			PatentNumber: fmt.Sprintf("97%05d", i),
			Title:        text,
			Abstract:     text + " described in detail.",
			FilingDate:   base.AddDate(0, 0, i),
			Decision:     "ACCEPTED",
		}
	}
	return out
}

func newTestPipeline(t *testing.T, loader Loader, provider embedding.Provider, opts ...Option) (*Pipeline, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "outputs_sample")
	opts = append([]Option{
		WithTopicOptions(topicmodel.Options{Topics: 2, Iterations: 20, MinTopicProb: 0.01, Processes: 1}),
		WithBatchSize(5),
	}, opts...)
	return New(loader, provider, dir, "sample", hupd.SplitTrain, opts...), dir
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	storeRoot := t.TempDir()
	rec := &recorder{}

	p, dir := newTestPipeline(t, &fakeLoader{patents: testPatents()}, &bagProvider{dims: 8},
		WithUpload(objstore.NewFileStore(storeRoot), "outputs_sample"),
		WithProgress(rec),
	)
	summary, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Patents != 12 || summary.Dimensions != 8 || summary.Topics != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if !summary.Uploaded {
		t.Error("summary.Uploaded = false")
	}

	wantStages := []Stage{StageLoad, StageEmbed, StageTopics, StageIndex, StageWrite, StageUpload}
	if diff := cmp.Diff(wantStages, rec.stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if rec.progress[StageEmbed] != 12 {
		t.Errorf("embed progress = %d, want 12", rec.progress[StageEmbed])
	}

	d := artifact.Dir(dir)
	if missing := d.Missing(artifact.Keys); len(missing) > 0 {
		t.Fatalf("missing artifacts: %v", missing)
	}
	for _, key := range artifact.Keys {
		if _, err := os.Stat(filepath.Join(storeRoot, "outputs_sample", key)); err != nil {
			t.Errorf("%s not uploaded: %v", key, err)
		}
	}

	m, err := artifact.ReadManifest(d.Path(artifact.KeyManifest))
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if m.RunID != summary.RunID || m.Model != "bag-of-words" || m.Metric != "cosine" || m.Split != "train" {
		t.Errorf("manifest = %+v", m)
	}

	idx, err := vecindex.Load(d.Path(artifact.KeyIndex))
	if err != nil {
		t.Fatalf("Load index: %v", err)
	}
	if idx.Len() != 12 || idx.ID(0) != "14900000" {
		t.Errorf("index has %d rows, first %q", idx.Len(), idx.ID(0))
	}

	vectors, err := artifact.ReadEmbeddings(d.Path(artifact.KeyEmbeddings), 8)
	if err != nil {
		t.Fatalf("ReadEmbeddings() error = %v", err)
	}
	if len(vectors) != 12 {
		t.Errorf("got %d embedding rows", len(vectors))
	}

	db, err := storage.OpenDB(d.Path(artifact.KeyDatabase))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	n, err := db.Count()
	if err != nil || n != 12 {
		t.Errorf("Count() = %d, %v", n, err)
	}
	got, err := db.GetByPatentNumber("9700003")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "14900003" {
		t.Errorf("GetByPatentNumber() = %+v", got)
	}

	var tm topicmodel.TopicMap
	if err := artifact.ReadJSON(d.Path(artifact.KeyTopicMap), &tm); err != nil {
		t.Fatal(err)
	}
	if len(tm.Points) > 12 {
		t.Errorf("topic map has %d points", len(tm.Points))
	}
	for _, pt := range tm.Points {
		if _, ok := idx.Position(pt.ID); !ok {
			t.Errorf("topic map point %q is not indexed", pt.ID)
		}
	}
}

func TestRunWithoutUpload(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeLoader{patents: testPatents()}, &bagProvider{dims: 8})
	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Uploaded {
		t.Error("summary.Uploaded = true without a store")
	}
	for _, st := range summary.Stages {
		if st.Stage == StageUpload {
			t.Error("upload stage ran without a store")
		}
	}
}

func TestRunNoPatents(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeLoader{}, &bagProvider{dims: 8})
	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrNoPatents) {
		t.Errorf("Run() error = %v, want ErrNoPatents", err)
	}
}

func TestRunLoadFailure(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeLoader{err: hupd.ErrAuth}, &bagProvider{dims: 8})
	_, err := p.Run(context.Background())
	if !errors.Is(err, hupd.ErrAuth) {
		t.Errorf("Run() error = %v, want ErrAuth", err)
	}
}

func TestRunEmbedFailureWritesNothing(t *testing.T) {
	provider := &bagProvider{dims: 8, fail: true}
	p, dir := newTestPipeline(t, &fakeLoader{patents: testPatents()}, provider)
	_, err := p.Run(context.Background())
	if err == nil || !strings.HasPrefix(err.Error(), "embed:") {
		t.Fatalf("Run() error = %v, want embed failure", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times after the first failure", provider.calls)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("artifact directory created after a failed run")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := newTestPipeline(t, &fakeLoader{patents: testPatents()}, &bagProvider{dims: 8})
	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
