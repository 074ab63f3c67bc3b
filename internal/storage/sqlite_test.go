package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testPatents() []patent.Patent {
	return []patent.Patent{
		{ID: "14900001", PatentNumber: "9713127", Title: "Drone delivery system", Abstract: "An unmanned aerial vehicle delivers parcels.", FilingDate: date(2016, 1, 4), Decision: "ACCEPTED", MainCPC: "B64C39/02", TopicID: 25, TopicProb: 0.8},
		{ID: "14900002", PatentNumber: "9713128", Title: "Battery cell cooling", Abstract: "Liquid cooling of lithium cells.", FilingDate: date(2016, 1, 5), Decision: "ACCEPTED", TopicID: 101, TopicProb: 0.6},
		{ID: "14900003", PatentNumber: "9713129", Title: "Quadcopter landing gear", Abstract: "Landing gear for aerial vehicles.", FilingDate: date(2015, 12, 30), Decision: "ACCEPTED", TopicID: 25, TopicProb: 0.7},
		{ID: "14900004", PatentNumber: "9713130", Title: "Shoe lace", Abstract: "A self-tying lace.", FilingDate: date(2016, 1, 6), Decision: "ACCEPTED", TopicID: patent.NoTopic, TopicProb: 0.2},
		{ID: "14900005", PatentNumber: "", Title: "Pending widget", FilingDate: date(2016, 1, 7), Decision: "PENDING", TopicID: 101, TopicProb: 0.5},
	}
}

func testTopics() []patent.Topic {
	return []patent.Topic{
		{ID: patent.NoTopic, Count: 1},
		{ID: 25, Count: 2, Keywords: []patent.Keyword{{Word: "drone", Weight: 0.3}, {Word: "aerial", Weight: 0.2}, {Word: "vehicle", Weight: 0.1}}},
		{ID: 101, Count: 2, Keywords: []patent.Keyword{{Word: "battery", Weight: 0.4}, {Word: "cell", Weight: 0.2}}},
	}
}

// setupTestDB creates a database holding testPatents and testTopics.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "patents.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.WriteRun(testPatents(), testTopics()); err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}
	return db
}

func TestWriteRun_ReplacesPreviousRun(t *testing.T) {
	db := setupTestDB(t)

	if err := db.WriteRun(testPatents()[:2], testTopics()[1:2]); err != nil {
		t.Fatalf("second WriteRun failed: %v", err)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
	topics, err := db.ListTopics()
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if len(topics) != 1 {
		t.Errorf("got %d topics, want 1", len(topics))
	}
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetByID("14900001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if diff := cmp.Diff(&testPatents()[0], got); diff != "" {
		t.Errorf("patent mismatch (-want +got):\n%s", diff)
	}

	missing, err := db.GetByID("nope")
	if err != nil {
		t.Fatalf("GetByID(nope) failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing patent, got %+v", missing)
	}
}

func TestGetByPatentNumber(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		number string
		wantID string
	}{
		{number: "9713129", wantID: "14900003"},
		{number: "0000000", wantID: ""},
		{number: "", wantID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			got, err := db.GetByPatentNumber(tt.number)
			if err != nil {
				t.Fatalf("GetByPatentNumber failed: %v", err)
			}
			if tt.wantID == "" {
				if got != nil {
					t.Errorf("expected nil, got %s", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.wantID {
				t.Errorf("GetByPatentNumber(%s) = %v, want %s", tt.number, got, tt.wantID)
			}
		})
	}
}

func TestListPatents_IndexOrder(t *testing.T) {
	db := setupTestDB(t)

	patents, err := db.ListPatents(0)
	if err != nil {
		t.Fatalf("ListPatents failed: %v", err)
	}
	if diff := cmp.Diff(testPatents(), patents); diff != "" {
		t.Errorf("patents mismatch (-want +got):\n%s", diff)
	}

	limited, err := db.ListPatents(2)
	if err != nil {
		t.Fatalf("ListPatents(2) failed: %v", err)
	}
	if len(limited) != 2 || limited[1].ID != "14900002" {
		t.Errorf("ListPatents(2) = %v", limited)
	}
}

func TestSearchText(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.SearchText("aerial", 10)
	if err != nil {
		t.Fatalf("SearchText failed: %v", err)
	}
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"14900001", "14900003"}, ids); diff != "" {
		t.Errorf("search results mismatch (-want +got):\n%s", diff)
	}

	// FTS5 operators in user input are treated as words.
	if _, err := db.SearchText(`lace OR "tying"`, 10); err != nil {
		t.Errorf("SearchText with quotes failed: %v", err)
	}
}

func TestGetTopic(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetTopic(25)
	if err != nil {
		t.Fatalf("GetTopic failed: %v", err)
	}
	if diff := cmp.Diff(&testTopics()[1], got); diff != "" {
		t.Errorf("topic mismatch (-want +got):\n%s", diff)
	}

	missing, err := db.GetTopic(7)
	if err != nil {
		t.Fatalf("GetTopic(7) failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}
}

func TestListTopics(t *testing.T) {
	db := setupTestDB(t)

	topics, err := db.ListTopics()
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if diff := cmp.Diff(testTopics(), topics); diff != "" {
		t.Errorf("topics mismatch (-want +got):\n%s", diff)
	}
}

func TestTopicCounts(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.TopicCounts()
	if err != nil {
		t.Fatalf("TopicCounts failed: %v", err)
	}
	want := []TopicCount{
		{TopicID: 25, TopicWords: "25_drone_aerial_vehicle", Count: 2},
		{TopicID: 101, TopicWords: "101_battery_cell", Count: 2},
		{TopicID: -1, TopicWords: "-1_outliers", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestTopTopics_ExcludesNoTopic(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.TopTopics(10)
	if err != nil {
		t.Fatalf("TopTopics failed: %v", err)
	}
	for _, c := range got {
		if c.TopicID == patent.NoTopic {
			t.Error("TopTopics should exclude the no-topic bucket")
		}
	}
	if len(got) != 2 {
		t.Errorf("got %d topics, want 2", len(got))
	}

	one, _ := db.TopTopics(1)
	if len(one) != 1 || one[0].TopicID != 25 {
		t.Errorf("TopTopics(1) = %v, want topic 25", one)
	}
}

func TestTopicsByYear(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.TopicsByYear(25)
	if err != nil {
		t.Fatalf("TopicsByYear failed: %v", err)
	}
	want := []TopicYearCount{
		{TopicID: 25, TopicWords: "25_drone_aerial_vehicle", Year: 2015, Count: 1},
		{TopicID: 25, TopicWords: "25_drone_aerial_vehicle", Year: 2016, Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("by-year mismatch (-want +got):\n%s", diff)
	}

	all, err := db.TopicsByYear()
	if err != nil {
		t.Fatalf("TopicsByYear() failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("got %d rows for all topics, want 4", len(all))
	}
}

func TestTotalsByYear(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.TotalsByYear()
	if err != nil {
		t.Fatalf("TotalsByYear failed: %v", err)
	}
	want := []YearCount{{Year: 2015, Count: 1}, {Year: 2016, Count: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}
}

func TestTopicStatus(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.TopicStatus()
	if err != nil {
		t.Fatalf("TopicStatus failed: %v", err)
	}
	want := []StatusCount{{Status: StatusNoTopic, Count: 1}, {Status: StatusTopicExists, Count: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestTopicStatus_Empty(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	got, err := db.TopicStatus()
	if err != nil {
		t.Fatalf("TopicStatus failed: %v", err)
	}
	if got[0].Count != 0 || got[1].Count != 0 {
		t.Errorf("empty database status = %v", got)
	}
}
