package hupd

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
)

// record is the subset of an HUPD application document used here.
type record struct {
	ApplicationNumber string `json:"application_number"`
	PatentNumber      string `json:"patent_number"`
	Title             string `json:"title"`
	Abstract          string `json:"abstract"`
	FilingDate        string `json:"filing_date"`
	Decision          string `json:"decision"`
	MainCPCLabel      string `json:"main_cpc_label"`
}

// parseDate accepts the dataset's YYYYMMDD dates and ISO dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// cleanNumber maps the dataset's placeholders for a missing patent number to "".
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "nan", "null":
		return ""
	}
	return s
}

func (r record) toPatent() (patent.Patent, error) {
	filed, err := parseDate(r.FilingDate)
	if err != nil {
		return patent.Patent{}, err
	}
	return patent.Patent{
		ID:           strings.TrimSpace(r.ApplicationNumber),
		PatentNumber: cleanNumber(r.PatentNumber),
		Title:        strings.TrimSpace(r.Title),
		Abstract:     strings.TrimSpace(r.Abstract),
		FilingDate:   filed,
		Decision:     r.Decision,
		MainCPC:      r.MainCPCLabel,
		TopicID:      patent.NoTopic,
	}, nil
}

// ParseArchive reads a tar.gz archive of HUPD JSON documents and calls fn for
// each application. Entries that are not .json files are skipped.
func ParseArchive(r io.Reader, fn func(patent.Patent) error) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Ext(hdr.Name) != ".json" {
			continue
		}

		var rec record
		if err := json.NewDecoder(tr).Decode(&rec); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadArchive, hdr.Name, err)
		}
		if rec.ApplicationNumber == "" {
			rec.ApplicationNumber = strings.TrimSuffix(path.Base(hdr.Name), ".json")
		}

		p, err := rec.toPatent()
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadArchive, hdr.Name, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}
