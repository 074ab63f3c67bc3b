package patent

import (
	"testing"
	"time"
)

func TestPatent_Text(t *testing.T) {
	tests := []struct {
		name     string
		p        Patent
		expected string
	}{
		{
			name:     "title and abstract",
			p:        Patent{Title: "Drone dock", Abstract: "A landing station."},
			expected: "Drone dock. A landing station.",
		},
		{
			name:     "title only",
			p:        Patent{Title: "  Drone dock "},
			expected: "Drone dock",
		},
		{
			name:     "abstract only",
			p:        Patent{Abstract: "A landing station."},
			expected: "A landing station.",
		},
		{
			name:     "empty",
			p:        Patent{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Text(); got != tt.expected {
				t.Errorf("Text() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPatent_GrantedAndLink(t *testing.T) {
	p := Patent{PatentNumber: "9713127"}
	if !p.Granted() {
		t.Error("patent with a number should be granted")
	}
	if got := p.Link(); got != "https://patents.google.com/patent/US9713127" {
		t.Errorf("Link() = %q", got)
	}

	pending := Patent{}
	if pending.Granted() {
		t.Error("patent without a number should not be granted")
	}
	if pending.Link() != "" {
		t.Error("pending application should have no link")
	}
}

func TestPatent_FilingYear(t *testing.T) {
	p := Patent{FilingDate: time.Date(2016, 1, 15, 0, 0, 0, 0, time.UTC)}
	if p.FilingYear() != 2016 {
		t.Errorf("FilingYear() = %d, want 2016", p.FilingYear())
	}
	if (Patent{}).FilingYear() != 0 {
		t.Error("zero filing date should give year 0")
	}
}

func TestTopic_Label(t *testing.T) {
	topic := Topic{
		ID: 25,
		Keywords: []Keyword{
			{Word: "drone", Weight: 0.9},
			{Word: "aerial", Weight: 0.5},
			{Word: "vehicle", Weight: 0.4},
			{Word: "uav", Weight: 0.3},
			{Word: "flight", Weight: 0.1},
		},
	}
	if got := topic.Label(); got != "25_drone_aerial_vehicle_uav" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Topic{ID: NoTopic}).Label(); got != "-1_outliers" {
		t.Errorf("outlier Label() = %q", got)
	}
	if got := (Topic{ID: 3}).Label(); got != "3" {
		t.Errorf("empty keywords Label() = %q", got)
	}
}

func TestTopic_TopWords(t *testing.T) {
	topic := Topic{Keywords: []Keyword{{Word: "a"}, {Word: "b"}, {Word: "c"}}}
	if got := topic.TopWords(2); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("TopWords(2) = %v", got)
	}
	if got := topic.TopWords(10); len(got) != 3 {
		t.Errorf("TopWords(10) returned %d words, want 3", len(got))
	}
	if got := topic.TopWords(0); len(got) != 3 {
		t.Errorf("TopWords(0) returned %d words, want all 3", len(got))
	}
}
