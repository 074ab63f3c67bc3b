package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
)

// Topic status labels used by the dashboard.
const (
	StatusNoTopic     = "No Topic"
	StatusTopicExists = "Topic Exists"
)

// TopicCount is one row of the topic counts table.
type TopicCount struct {
	TopicID    int    `json:"topic_id"`
	TopicWords string `json:"topic_words"`
	Count      int    `json:"count"`
}

// TopicYearCount is one row of the topics by filing year table.
type TopicYearCount struct {
	TopicID    int    `json:"topic_id"`
	TopicWords string `json:"topic_words"`
	Year       int    `json:"year"`
	Count      int    `json:"count"`
}

// YearCount is the number of patents filed in a year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// StatusCount is the number of patents with a topic status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// GetTopic retrieves a topic with its keywords. Returns nil if not found.
func (d *DB) GetTopic(id int) (*patent.Topic, error) {
	t := patent.Topic{ID: id}
	err := d.db.QueryRow(`SELECT count FROM topics WHERE id = ?`, id).Scan(&t.Count)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting topic %d: %w", id, err)
	}

	rows, err := d.db.Query(`SELECT word, weight FROM topic_keywords WHERE topic_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("getting keywords of topic %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var kw patent.Keyword
		if err := rows.Scan(&kw.Word, &kw.Weight); err != nil {
			return nil, err
		}
		t.Keywords = append(t.Keywords, kw)
	}
	return &t, rows.Err()
}

// ListTopics returns all topics with keywords, ordered by ID.
func (d *DB) ListTopics() ([]patent.Topic, error) {
	rows, err := d.db.Query(`
		SELECT t.id, t.count, k.word, k.weight
		FROM topics t LEFT JOIN topic_keywords k ON k.topic_id = t.id
		ORDER BY t.id, k.rank`)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	defer rows.Close()

	var topics []patent.Topic
	for rows.Next() {
		var id, count int
		var word sql.NullString
		var weight sql.NullFloat64
		if err := rows.Scan(&id, &count, &word, &weight); err != nil {
			return nil, err
		}
		if len(topics) == 0 || topics[len(topics)-1].ID != id {
			topics = append(topics, patent.Topic{ID: id, Count: count})
		}
		if word.Valid {
			last := &topics[len(topics)-1]
			last.Keywords = append(last.Keywords, patent.Keyword{Word: word.String, Weight: weight.Float64})
		}
	}
	return topics, rows.Err()
}

// TopicCounts returns the number of patents per topic, largest first.
// The no-topic bucket is included.
func (d *DB) TopicCounts() ([]TopicCount, error) {
	return d.topicCounts(`
		SELECT p.topic_id, COALESCE(t.label, ''), COUNT(*) AS n
		FROM patents p LEFT JOIN topics t ON t.id = p.topic_id
		GROUP BY p.topic_id
		ORDER BY n DESC, p.topic_id`)
}

// TopTopics returns the n largest topics, excluding patents without a topic.
func (d *DB) TopTopics(n int) ([]TopicCount, error) {
	return d.topicCounts(`
		SELECT p.topic_id, COALESCE(t.label, ''), COUNT(*) AS n
		FROM patents p LEFT JOIN topics t ON t.id = p.topic_id
		WHERE p.topic_id != ?
		GROUP BY p.topic_id
		ORDER BY n DESC, p.topic_id
		LIMIT ?`, patent.NoTopic, n)
}

func (d *DB) topicCounts(query string, args ...interface{}) ([]TopicCount, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting topics: %w", err)
	}
	defer rows.Close()

	var counts []TopicCount
	for rows.Next() {
		var c TopicCount
		if err := rows.Scan(&c.TopicID, &c.TopicWords, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TopicsByYear returns patent counts per topic and filing year.
// With no topicIDs all topics are returned.
func (d *DB) TopicsByYear(topicIDs ...int) ([]TopicYearCount, error) {
	query := `
		SELECT p.topic_id, COALESCE(t.label, ''), p.filing_year, COUNT(*)
		FROM patents p LEFT JOIN topics t ON t.id = p.topic_id
		WHERE p.filing_year > 0`
	var args []interface{}
	if len(topicIDs) > 0 {
		query += " AND p.topic_id IN (?" + strings.Repeat(", ?", len(topicIDs)-1) + ")"
		for _, id := range topicIDs {
			args = append(args, id)
		}
	}
	query += " GROUP BY p.topic_id, p.filing_year ORDER BY p.topic_id, p.filing_year"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting topics by year: %w", err)
	}
	defer rows.Close()

	var counts []TopicYearCount
	for rows.Next() {
		var c TopicYearCount
		if err := rows.Scan(&c.TopicID, &c.TopicWords, &c.Year, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TotalsByYear returns the number of patents per filing year.
func (d *DB) TotalsByYear() ([]YearCount, error) {
	rows, err := d.db.Query(`
		SELECT filing_year, COUNT(*) FROM patents
		WHERE filing_year > 0
		GROUP BY filing_year ORDER BY filing_year`)
	if err != nil {
		return nil, fmt.Errorf("counting patents by year: %w", err)
	}
	defer rows.Close()

	var counts []YearCount
	for rows.Next() {
		var c YearCount
		if err := rows.Scan(&c.Year, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TopicStatus splits patents into those with and without a topic.
// Both statuses are always present.
func (d *DB) TopicStatus() ([]StatusCount, error) {
	var none, some int
	err := d.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN topic_id = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN topic_id != ? THEN 1 ELSE 0 END), 0)
		FROM patents`, patent.NoTopic, patent.NoTopic).Scan(&none, &some)
	if err != nil {
		return nil, fmt.Errorf("counting topic status: %w", err)
	}
	return []StatusCount{
		{Status: StatusNoTopic, Count: none},
		{Status: StatusTopicExists, Count: some},
	}, nil
}
