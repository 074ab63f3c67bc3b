package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database of one run's results.
type DB struct {
	db *sql.DB
}

// dateLayout is the storage format of filing dates.
const dateLayout = "2006-01-02"

// selectPatentFields contains the standard field list for patent SELECT queries.
const selectPatentFields = `id, patent_number, title, abstract, filing_date,
	decision, main_cpc, topic_id, topic_prob`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		-- One row per patent, position is the embedding/index row
		CREATE TABLE IF NOT EXISTS patents (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			patent_number TEXT NOT NULL,
			title TEXT NOT NULL,
			abstract TEXT,
			filing_date TEXT,
			filing_year INTEGER NOT NULL,
			decision TEXT,
			main_cpc TEXT,
			topic_id INTEGER NOT NULL,
			topic_prob REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_patents_number ON patents(patent_number) WHERE patent_number != '';
		CREATE INDEX IF NOT EXISTS idx_patents_topic ON patents(topic_id, filing_year);

		CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY,
			label TEXT NOT NULL,
			count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS topic_keywords (
			topic_id INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			word TEXT NOT NULL,
			weight REAL NOT NULL,
			PRIMARY KEY (topic_id, rank)
		);

		-- Title and abstract search for the explorer
		CREATE VIRTUAL TABLE IF NOT EXISTS patents_fts USING fts5(
			id,
			title,
			abstract
		);
	`

	_, err := db.Exec(schema)
	return err
}

// WriteRun replaces the stored results with patents and topics.
// patents must be in index order.
func (d *DB) WriteRun(patents []patent.Patent, topics []patent.Topic) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"patents", "patents_fts", "topics", "topic_keywords"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	patentStmt, err := tx.Prepare(`
		INSERT INTO patents (
			position, id, patent_number, title, abstract,
			filing_date, filing_year, decision, main_cpc,
			topic_id, topic_prob
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing patents insert: %w", err)
	}
	defer patentStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO patents_fts (id, title, abstract) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, p := range patents {
		_, err := patentStmt.Exec(
			i, p.ID, p.PatentNumber, p.Title, p.Abstract,
			formatDate(p.FilingDate), p.FilingYear(), p.Decision, p.MainCPC,
			p.TopicID, p.TopicProb,
		)
		if err != nil {
			return fmt.Errorf("inserting patent %s: %w", p.ID, err)
		}
		if _, err := ftsStmt.Exec(p.ID, p.Title, p.Abstract); err != nil {
			return fmt.Errorf("inserting fts for %s: %w", p.ID, err)
		}
	}

	topicStmt, err := tx.Prepare(`INSERT INTO topics (id, label, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing topics insert: %w", err)
	}
	defer topicStmt.Close()

	kwStmt, err := tx.Prepare(`INSERT INTO topic_keywords (topic_id, rank, word, weight) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing keywords insert: %w", err)
	}
	defer kwStmt.Close()

	for _, t := range topics {
		if _, err := topicStmt.Exec(t.ID, t.Label(), t.Count); err != nil {
			return fmt.Errorf("inserting topic %d: %w", t.ID, err)
		}
		for rank, kw := range t.Keywords {
			if _, err := kwStmt.Exec(t.ID, rank, kw.Word, kw.Weight); err != nil {
				return fmt.Errorf("inserting keyword %q of topic %d: %w", kw.Word, t.ID, err)
			}
		}
	}

	return tx.Commit()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// GetByID retrieves a patent by application number. Returns nil if not found.
func (d *DB) GetByID(id string) (*patent.Patent, error) {
	row := d.db.QueryRow(`SELECT `+selectPatentFields+` FROM patents WHERE id = ?`, id)
	return scanPatent(row)
}

// GetByPatentNumber retrieves a granted patent by its number. Returns nil if not found.
func (d *DB) GetByPatentNumber(number string) (*patent.Patent, error) {
	if number == "" {
		return nil, nil
	}
	row := d.db.QueryRow(`SELECT `+selectPatentFields+` FROM patents WHERE patent_number = ? ORDER BY position LIMIT 1`, number)
	return scanPatent(row)
}

// ListPatents returns all patents in index order, optionally limited.
func (d *DB) ListPatents(limit int) ([]patent.Patent, error) {
	query := `SELECT ` + selectPatentFields + ` FROM patents ORDER BY position`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing patents: %w", err)
	}
	defer rows.Close()

	return scanPatents(rows)
}

// SearchText performs a full-text search over titles and abstracts.
func (d *DB) SearchText(query string, limit int) ([]patent.Patent, error) {
	rows, err := d.db.Query(`
		SELECT `+selectPatentFields+`
		FROM patents
		WHERE id IN (SELECT id FROM patents_fts WHERE patents_fts MATCH ?)
		ORDER BY position
		LIMIT ?`, prepareFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPatents(rows)
}

// prepareFTSQuery quotes each term so user input cannot inject FTS5 syntax.
func prepareFTSQuery(query string) string {
	var terms []string
	for _, part := range strings.Fields(query) {
		terms = append(terms, "\""+strings.ReplaceAll(part, "\"", "\"\"")+"\"")
	}
	return strings.Join(terms, " ")
}

// Count returns the total number of patents.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM patents").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPatent(s scanner) (*patent.Patent, error) {
	var p patent.Patent
	var abstract, filingDate, decision, mainCPC sql.NullString

	err := s.Scan(
		&p.ID, &p.PatentNumber, &p.Title, &abstract, &filingDate,
		&decision, &mainCPC, &p.TopicID, &p.TopicProb,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.Abstract = abstract.String
	p.Decision = decision.String
	p.MainCPC = mainCPC.String
	if filingDate.String != "" {
		p.FilingDate, err = time.Parse(dateLayout, filingDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing filing date of %s: %w", p.ID, err)
		}
	}

	return &p, nil
}

func scanPatents(rows *sql.Rows) ([]patent.Patent, error) {
	var patents []patent.Patent
	for rows.Next() {
		p, err := scanPatent(rows)
		if err != nil {
			return nil, err
		}
		patents = append(patents, *p)
	}
	return patents, rows.Err()
}
