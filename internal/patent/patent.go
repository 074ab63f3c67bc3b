// Package patent defines the core domain types for patent records and topics.
package patent

import (
	"fmt"
	"strings"
	"time"
)

// NoTopic is the topic ID of a patent without a dominant topic.
const NoTopic = -1

// GooglePatentsURL is the base URL for public patent pages.
const GooglePatentsURL = "https://patents.google.com/patent/US"

// Patent represents one HUPD patent application.
//
// Topic fields are filled in by topic inference and are not modified afterwards.
type Patent struct {
	// Identity
	ID           string `json:"id"`            // HUPD application number
	PatentNumber string `json:"patent_number"` // Empty if no patent was granted

	// Text
	Title    string `json:"title"`
	Abstract string `json:"abstract"`

	// Filing metadata
	FilingDate time.Time `json:"filing_date"`
	Decision   string    `json:"decision,omitempty"` // ACCEPTED, REJECTED, PENDING, ...
	MainCPC    string    `json:"main_cpc_label,omitempty"`

	// Topic assignment
	TopicID   int     `json:"topic_id"`
	TopicProb float64 `json:"topic_prob"`
}

// Granted reports whether the application received a patent number.
func (p Patent) Granted() bool {
	return p.PatentNumber != ""
}

// HasTopic reports whether the patent was assigned to a topic.
func (p Patent) HasTopic() bool {
	return p.TopicID != NoTopic
}

// FilingYear returns the filing year, or 0 when the date is unknown.
func (p Patent) FilingYear() int {
	if p.FilingDate.IsZero() {
		return 0
	}
	return p.FilingDate.Year()
}

// Text returns the text used for embedding and topic modeling.
func (p Patent) Text() string {
	title := strings.TrimSpace(p.Title)
	abstract := strings.TrimSpace(p.Abstract)
	switch {
	case title == "":
		return abstract
	case abstract == "":
		return title
	default:
		return title + ". " + abstract
	}
}

// Link returns the Google Patents URL for a granted patent.
func (p Patent) Link() string {
	if p.PatentNumber == "" {
		return ""
	}
	return GooglePatentsURL + p.PatentNumber
}

// Keyword is a representative word of a topic with its weight.
type Keyword struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Topic describes one topic of a training run.
// Topic IDs are specific to the run that produced them.
type Topic struct {
	ID       int       `json:"id"`
	Keywords []Keyword `json:"keywords"` // Ordered by descending weight
	Count    int       `json:"count"`
}

// TopWords returns up to n keywords in weight order.
func (t Topic) TopWords(n int) []string {
	if n <= 0 || n > len(t.Keywords) {
		n = len(t.Keywords)
	}
	words := make([]string, n)
	for i := 0; i < n; i++ {
		words[i] = t.Keywords[i].Word
	}
	return words
}

// Label returns the topic's display label, e.g. "25_drone_aerial_vehicle_uav".
func (t Topic) Label() string {
	if t.ID == NoTopic {
		return fmt.Sprintf("%d_outliers", NoTopic)
	}
	words := t.TopWords(4)
	if len(words) == 0 {
		return fmt.Sprintf("%d", t.ID)
	}
	return fmt.Sprintf("%d_%s", t.ID, strings.Join(words, "_"))
}
