// Package topicmodel assigns patents to topics with Latent Dirichlet Allocation.
//
// The model is trained without a fixed random seed: topic IDs and counts differ
// between runs and are only meaningful within the run that produced them.
package topicmodel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
)

// Defaults for Options.
const (
	DefaultIterations   = 100
	DefaultTopWords     = 10
	DefaultMinTopicProb = 0.3
)

// ErrTooFewDocuments is returned when there are fewer documents than topics.
var ErrTooFewDocuments = errors.New("too few documents for the requested number of topics")

// Options configures training.
type Options struct {
	Topics       int     // number of LDA topics
	Iterations   int     // training passes over the corpus
	TopWords     int     // keywords kept per topic
	MinTopicProb float64 // documents whose best topic is below this are outliers
	Processes    int     // parallel workers, 0 for GOMAXPROCS
}

func (o *Options) defaults() {
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.TopWords <= 0 {
		o.TopWords = DefaultTopWords
	}
	if o.MinTopicProb == 0 {
		o.MinTopicProb = DefaultMinTopicProb
	}
}

// Assignment is the topic inferred for one document.
type Assignment struct {
	TopicID int     `json:"topic_id"`
	Prob    float64 `json:"prob"`
}

// Result is a trained model's output.
type Result struct {
	// Assignments[i] belongs to the i-th training document.
	Assignments []Assignment
	// Topics are ordered by ID; the outlier topic comes first when present.
	Topics []patent.Topic
}

// Fit trains a topic model on docs.
//
// Topics are numbered by size, 0 being the largest. A document whose best
// topic probability is below MinTopicProb is assigned patent.NoTopic but
// keeps the probability of its best topic.
func Fit(docs []string, opts Options) (*Result, error) {
	opts.defaults()
	if opts.Topics < 2 {
		return nil, fmt.Errorf("need at least 2 topics, got %d", opts.Topics)
	}
	if len(docs) < opts.Topics {
		return nil, fmt.Errorf("%w: %d documents, %d topics", ErrTooFewDocuments, len(docs), opts.Topics)
	}

	vectoriser := nlp.NewCountVectoriser(stopWords...)
	lda := nlp.NewLatentDirichletAllocation(opts.Topics)
	lda.Iterations = opts.Iterations
	lda.TransformationPasses = max(opts.Iterations/2, 1)
	if opts.Processes > 0 {
		lda.Processes = opts.Processes
	}

	pipeline := nlp.NewPipeline(vectoriser, lda)
	docsOverTopics, err := pipeline.FitTransform(docs...)
	if err != nil {
		return nil, fmt.Errorf("fitting LDA: %w", err)
	}

	raw := assign(docsOverTopics, opts.MinTopicProb)
	order := rankTopics(raw, opts.Topics)

	result := &Result{Assignments: make([]Assignment, len(raw))}
	outliers := 0
	counts := make([]int, opts.Topics)
	for i, a := range raw {
		if a.TopicID == patent.NoTopic {
			outliers++
			result.Assignments[i] = a
			continue
		}
		id := order[a.TopicID]
		counts[id]++
		result.Assignments[i] = Assignment{TopicID: id, Prob: a.Prob}
	}

	if outliers > 0 {
		result.Topics = append(result.Topics, patent.Topic{ID: patent.NoTopic, Count: outliers})
	}
	keywords := topKeywords(lda.Components(), vectoriser.Vocabulary, opts.TopWords)
	topics := make([]patent.Topic, opts.Topics)
	for ldaTopic, id := range order {
		topics[id] = patent.Topic{ID: id, Keywords: keywords[ldaTopic], Count: counts[id]}
	}
	result.Topics = append(result.Topics, topics...)

	return result, nil
}

// assign picks each document's most probable LDA topic.
// docsOverTopics is topics x documents.
func assign(docsOverTopics mat.Matrix, minProb float64) []Assignment {
	topics, docs := docsOverTopics.Dims()
	out := make([]Assignment, docs)
	for doc := 0; doc < docs; doc++ {
		var sum, best float64
		winner := -1
		for topic := 0; topic < topics; topic++ {
			v := docsOverTopics.At(topic, doc)
			sum += v
			if winner < 0 || v > best {
				winner, best = topic, v
			}
		}
		if sum <= 0 {
			out[doc] = Assignment{TopicID: patent.NoTopic}
			continue
		}
		prob := best / sum
		if prob < minProb {
			out[doc] = Assignment{TopicID: patent.NoTopic, Prob: prob}
			continue
		}
		out[doc] = Assignment{TopicID: winner, Prob: prob}
	}
	return out
}

// rankTopics maps LDA topic index to a size-ordered topic ID.
// Ties keep LDA order.
func rankTopics(assignments []Assignment, k int) []int {
	counts := make([]int, k)
	for _, a := range assignments {
		if a.TopicID != patent.NoTopic {
			counts[a.TopicID]++
		}
	}

	byCount := make([]int, k)
	for i := range byCount {
		byCount[i] = i
	}
	sort.SliceStable(byCount, func(i, j int) bool {
		return counts[byCount[i]] > counts[byCount[j]]
	})

	order := make([]int, k)
	for id, ldaTopic := range byCount {
		order[ldaTopic] = id
	}
	return order
}

// topKeywords returns the n most weighted words of each topic.
// topicsOverWords is topics x vocabulary; weights are normalized per topic.
func topKeywords(topicsOverWords mat.Matrix, vocabulary map[string]int, n int) [][]patent.Keyword {
	rows, cols := topicsOverWords.Dims()

	vocab := make([]string, cols)
	for word, i := range vocabulary {
		if i < cols {
			vocab[i] = word
		}
	}

	out := make([][]patent.Keyword, rows)
	for topic := 0; topic < rows; topic++ {
		var total float64
		kws := make([]patent.Keyword, cols)
		for word := 0; word < cols; word++ {
			w := topicsOverWords.At(topic, word)
			total += w
			kws[word] = patent.Keyword{Word: vocab[word], Weight: w}
		}
		sort.SliceStable(kws, func(i, j int) bool {
			if kws[i].Weight != kws[j].Weight {
				return kws[i].Weight > kws[j].Weight
			}
			return kws[i].Word < kws[j].Word
		})
		if len(kws) > n {
			kws = kws[:n]
		}
		if total > 0 {
			for i := range kws {
				kws[i].Weight /= total
			}
		}
		out[topic] = kws
	}
	return out
}

// Apply copies assignments onto patents. patents must be in training order.
func Apply(patents []patent.Patent, r *Result) error {
	if len(patents) != len(r.Assignments) {
		return fmt.Errorf("got %d patents for %d assignments", len(patents), len(r.Assignments))
	}
	for i, a := range r.Assignments {
		patents[i].TopicID = a.TopicID
		patents[i].TopicProb = a.Prob
	}
	return nil
}

// Texts returns the training documents for patents.
func Texts(patents []patent.Patent) []string {
	docs := make([]string, len(patents))
	for i, p := range patents {
		docs[i] = p.Text()
	}
	return docs
}
