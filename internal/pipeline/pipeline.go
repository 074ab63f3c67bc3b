// Package pipeline runs the batch stages that turn a dataset split into an
// artifact set: load, embed, topics, index, write and an optional upload.
//
// Stages run one after the other, each to completion. A failure aborts the
// run; artifacts already written stay on disk and nothing is uploaded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/embedding"
	"github.com/atalyaalon/patents-topic-modeling/internal/hupd"
	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
	"github.com/atalyaalon/patents-topic-modeling/internal/objstore"
	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
	"github.com/atalyaalon/patents-topic-modeling/internal/topicmodel"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

// Stage names a pipeline step.
type Stage string

// Pipeline stages, in execution order.
const (
	StageLoad   Stage = "load"
	StageEmbed  Stage = "embed"
	StageTopics Stage = "topics"
	StageIndex  Stage = "index"
	StageWrite  Stage = "write"
	StageUpload Stage = "upload"
)

// ErrNoPatents is returned when the split contains no patents.
var ErrNoPatents = errors.New("no patents to process")

// ProgressReporter receives progress updates while stages run.
type ProgressReporter interface {
	// OnStage is called when a stage starts.
	OnStage(stage Stage)
	// OnProgress is called with the current progress of the running stage.
	OnProgress(stage Stage, current, total int)
}

// Loader produces the patents of a split.
type Loader interface {
	Load(ctx context.Context, split hupd.Split, datasetType string) ([]patent.Patent, error)
}

// Pipeline builds one artifact set.
type Pipeline struct {
	loader      Loader
	provider    embedding.Provider
	dir         artifact.Dir
	datasetType string
	split       hupd.Split

	metric    vecindex.Metric
	batchSize int
	mapPoints int
	topics    topicmodel.Options
	store     objstore.Store
	prefix    string
	progress  ProgressReporter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetric sets the similarity metric (default cosine).
func WithMetric(m vecindex.Metric) Option {
	return func(p *Pipeline) {
		p.metric = m
	}
}

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		p.batchSize = n
	}
}

// WithMapPoints bounds the number of patents on the topic map.
func WithMapPoints(n int) Option {
	return func(p *Pipeline) {
		p.mapPoints = n
	}
}

// WithTopicOptions sets the topic model options.
func WithTopicOptions(o topicmodel.Options) Option {
	return func(p *Pipeline) {
		p.topics = o
	}
}

// WithUpload uploads the artifacts to store under prefix after writing them.
func WithUpload(store objstore.Store, prefix string) Option {
	return func(p *Pipeline) {
		p.store = store
		p.prefix = prefix
	}
}

// WithProgress sets the progress reporter.
func WithProgress(r ProgressReporter) Option {
	return func(p *Pipeline) {
		p.progress = r
	}
}

// New creates a pipeline writing artifacts into dir.
func New(loader Loader, provider embedding.Provider, dir string, datasetType string, split hupd.Split, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:      loader,
		provider:    provider,
		dir:         artifact.Dir(dir),
		datasetType: datasetType,
		split:       split,
		metric:      vecindex.MetricCosine,
		batchSize:   embedding.DefaultBatchSize,
		mapPoints:   topicmodel.DefaultMapPoints,
		topics:      topicmodel.Options{Topics: 20},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary describes a finished run.
type Summary struct {
	RunID      string        `json:"run_id"`
	Dir        string        `json:"dir"`
	Patents    int           `json:"patents"`
	Topics     int           `json:"topics"`
	Outliers   int           `json:"outliers"`
	Dimensions int           `json:"dimensions"`
	Uploaded   bool          `json:"uploaded"`
	Stages     []StageTiming `json:"stages"`
	Duration   time.Duration `json:"duration_ns"`
}

func (p *Pipeline) startStage(stage Stage) {
	logging.Infof("Stage %s started", stage)
	if p.progress != nil {
		p.progress.OnStage(stage)
	}
}

func (p *Pipeline) report(stage Stage, current, total int) {
	if p.progress != nil {
		p.progress.OnProgress(stage, current, total)
	}
}

// timed runs fn as stage and records its duration in s.
func (p *Pipeline) timed(s *Summary, stage Stage, fn func() error) error {
	p.startStage(stage)
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	d := time.Since(start)
	s.Stages = append(s.Stages, StageTiming{Stage: stage, Duration: d})
	logging.Infof("Stage %s finished in %s", stage, d.Round(time.Millisecond))
	return nil
}

// Load runs the load stage.
func (p *Pipeline) Load(ctx context.Context) ([]patent.Patent, error) {
	patents, err := p.loader.Load(ctx, p.split, p.datasetType)
	if err != nil {
		return nil, err
	}
	if len(patents) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoPatents, p.datasetType, p.split)
	}
	p.report(StageLoad, len(patents), len(patents))
	return patents, nil
}

// Embed embeds patents in order. Row i belongs to patents[i].
func (p *Pipeline) Embed(ctx context.Context, patents []patent.Patent) ([][]float32, error) {
	return embedding.EmbedAll(ctx, p.provider, topicmodel.Texts(patents), p.batchSize, func(done, total int) {
		p.report(StageEmbed, done, total)
	})
}

// Run executes every stage and returns a summary of the written artifacts.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Dir: string(p.dir)}

	var (
		patents []patent.Patent
		vectors [][]float32
		model   *topicmodel.Result
		idx     *vecindex.Index
		err     error
	)

	if err := p.timed(summary, StageLoad, func() error {
		patents, err = p.Load(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.timed(summary, StageEmbed, func() error {
		vectors, err = p.Embed(ctx, patents)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.timed(summary, StageTopics, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		model, err = topicmodel.Fit(topicmodel.Texts(patents), p.topics)
		if err != nil {
			return err
		}
		return topicmodel.Apply(patents, model)
	}); err != nil {
		return nil, err
	}

	if err := p.timed(summary, StageIndex, func() error {
		idx, err = vecindex.Build(ids(patents), vectors, p.metric)
		return err
	}); err != nil {
		return nil, err
	}

	manifest := artifact.NewManifest(p.datasetType, string(p.split))
	manifest.Model = p.provider.ModelName()
	manifest.Dimensions = idx.Dimensions()
	manifest.Metric = string(idx.Metric())
	manifest.Patents = len(patents)
	for _, t := range model.Topics {
		if t.ID == patent.NoTopic {
			summary.Outliers = t.Count
			continue
		}
		manifest.Topics++
	}

	if err := p.timed(summary, StageWrite, func() error {
		return p.write(patents, vectors, model, idx, manifest)
	}); err != nil {
		return nil, err
	}

	if p.store != nil {
		if err := p.timed(summary, StageUpload, func() error {
			return objstore.Mirror(ctx, p.store, p.prefix, p.dir.Paths(artifact.Keys))
		}); err != nil {
			return nil, err
		}
		summary.Uploaded = true
	}

	summary.RunID = manifest.RunID
	summary.Patents = manifest.Patents
	summary.Topics = manifest.Topics
	summary.Dimensions = manifest.Dimensions
	summary.Duration = time.Since(start)
	return summary, nil
}

// write stores every artifact in the run directory. The manifest is written last.
func (p *Pipeline) write(patents []patent.Patent, vectors [][]float32, model *topicmodel.Result, idx *vecindex.Index, m *artifact.Manifest) error {
	if err := os.MkdirAll(string(p.dir), 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	steps := len(artifact.Keys)

	if err := artifact.WriteEmbeddings(p.dir.Path(artifact.KeyEmbeddings), vectors); err != nil {
		return err
	}
	p.report(StageWrite, 1, steps)

	if err := idx.Save(p.dir.Path(artifact.KeyIndex)); err != nil {
		return err
	}
	p.report(StageWrite, 2, steps)

	if err := writeDatabase(p.dir.Path(artifact.KeyDatabase), patents, model.Topics); err != nil {
		return err
	}
	p.report(StageWrite, 3, steps)

	topicIDs := make([]int, len(patents))
	for i, pt := range patents {
		topicIDs[i] = pt.TopicID
	}
	tm, err := topicmodel.ProjectTopicMap(ids(patents), vectors, topicIDs, p.mapPoints)
	if err != nil {
		logging.Warningf("Skipping topic map: %v", err)
		tm = &topicmodel.TopicMap{Points: []topicmodel.MapPoint{}}
	}
	if err := artifact.WriteJSON(p.dir.Path(artifact.KeyTopicMap), tm); err != nil {
		return err
	}
	p.report(StageWrite, 4, steps)

	if err := artifact.WriteManifest(p.dir.Path(artifact.KeyManifest), m); err != nil {
		return err
	}
	p.report(StageWrite, 5, steps)
	return nil
}

func writeDatabase(path string, patents []patent.Patent, topics []patent.Topic) error {
	db, err := storage.OpenDB(path)
	if err != nil {
		return err
	}
	if err := db.WriteRun(patents, topics); err != nil {
		db.Close()
		return err
	}
	return db.Close()
}

func ids(patents []patent.Patent) []string {
	out := make([]string, len(patents))
	for i, p := range patents {
		out[i] = p.ID
	}
	return out
}
