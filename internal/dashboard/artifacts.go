// Package dashboard serves the read-only dashboard, the patent explorer and a
// small JSON API over the artifact sets written by the pipeline.
package dashboard

import (
	"errors"
	"fmt"
	"os"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
	"github.com/atalyaalon/patents-topic-modeling/internal/topicmodel"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

// Messages shown by the explorer.
const (
	MsgPatentNotFound = "Patent number not found in system."
	MsgNoTopic        = "No dominant topic found."
)

// DefaultK is the number of similar patents shown by the explorer.
const DefaultK = 5

// topicWordCount is the number of topic words shown for a patent.
const topicWordCount = 5

var (
	// ErrPatentNotFound is returned for patent numbers missing from the result tables.
	ErrPatentNotFound = errors.New("patent number not found")

	// ErrArtifactsNotFound is returned when a directory lacks the index or database.
	ErrArtifactsNotFound = errors.New("artifacts not found")
)

// Artifacts is one loaded artifact set. It is read-only and shared by all requests.
type Artifacts struct {
	Prefix   string
	Manifest *artifact.Manifest // nil for imported legacy sets
	Index    *vecindex.Index
	DB       *storage.DB
	TopicMap *topicmodel.TopicMap
}

// OpenArtifacts loads the artifact set in dir. The index and database are
// required; the manifest and topic map are optional.
func OpenArtifacts(prefix, dir string) (*Artifacts, error) {
	d := artifact.Dir(dir)
	if missing := d.Missing([]string{artifact.KeyIndex, artifact.KeyDatabase}); len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: missing %v", ErrArtifactsNotFound, dir, missing)
	}

	idx, err := vecindex.Load(d.Path(artifact.KeyIndex))
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenDB(d.Path(artifact.KeyDatabase))
	if err != nil {
		return nil, err
	}

	a := &Artifacts{
		Prefix:   prefix,
		Index:    idx,
		DB:       db,
		TopicMap: &topicmodel.TopicMap{},
	}

	if _, err := os.Stat(d.Path(artifact.KeyManifest)); err == nil {
		m, err := artifact.ReadManifest(d.Path(artifact.KeyManifest))
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Manifest = m
	}
	if _, err := os.Stat(d.Path(artifact.KeyTopicMap)); err == nil {
		if err := artifact.ReadJSON(d.Path(artifact.KeyTopicMap), a.TopicMap); err != nil {
			db.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close releases the database.
func (a *Artifacts) Close() error {
	return a.DB.Close()
}

// Similar is one similar patent.
type Similar struct {
	ID           string  `json:"id"`
	PatentNumber string  `json:"patent_number,omitempty"`
	Title        string  `json:"title,omitempty"`
	TopicID      int     `json:"topic_id"`
	Score        float64 `json:"score"`
	Link         string  `json:"link,omitempty"`
}

// Exploration is the explorer's view of one patent.
type Exploration struct {
	Patent     *patent.Patent `json:"patent"`
	Link       string         `json:"link"`
	TopicWords []string       `json:"topic_words"` // empty when the patent has no dominant topic
	Similar    []Similar      `json:"similar"`
}

// Explore looks up a patent by number, its topic words and its k most similar patents.
func (a *Artifacts) Explore(number string, k int) (*Exploration, error) {
	p, err := a.DB.GetByPatentNumber(number)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPatentNotFound, number)
	}

	ex := &Exploration{Patent: p, Link: p.Link(), TopicWords: []string{}}
	if p.HasTopic() {
		t, err := a.DB.GetTopic(p.TopicID)
		if err != nil {
			return nil, err
		}
		if t != nil {
			ex.TopicWords = t.TopWords(topicWordCount)
		}
	}

	// Imported legacy indexes are keyed by patent number.
	id := p.ID
	if !a.Index.Has(id) && a.Index.Has(p.PatentNumber) {
		id = p.PatentNumber
	}
	neighbors, err := a.Index.SearchByID(id, k)
	if err != nil {
		return nil, err
	}
	if ex.Similar, err = a.describe(neighbors); err != nil {
		return nil, err
	}
	return ex, nil
}

// SearchVector returns the k patents nearest to a raw query vector.
func (a *Artifacts) SearchVector(query []float32, k int) ([]Similar, error) {
	neighbors, err := a.Index.Search(query, k)
	if err != nil {
		return nil, err
	}
	return a.describe(neighbors)
}

// describe attaches stored patent details to neighbors.
func (a *Artifacts) describe(neighbors []vecindex.Neighbor) ([]Similar, error) {
	out := make([]Similar, len(neighbors))
	for i, n := range neighbors {
		s := Similar{ID: n.ID, TopicID: patent.NoTopic, Score: a.Index.Similarity(n.Distance)}

		p, err := a.DB.GetByID(n.ID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			if p, err = a.DB.GetByPatentNumber(n.ID); err != nil {
				return nil, err
			}
		}
		if p != nil {
			s.ID = p.ID
			s.PatentNumber = p.PatentNumber
			s.Title = p.Title
			s.TopicID = p.TopicID
			s.Link = p.Link()
		}
		out[i] = s
	}
	return out, nil
}
