// Package storage persists run results in SQLite and patent caches as JSONL.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadPatents reads all patents from a JSONL file.
// A missing file returns an empty slice.
func ReadPatents(path string) ([]patent.Patent, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening patents file: %w", err)
	}
	defer f.Close()

	var patents []patent.Patent
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p patent.Patent
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		patents = append(patents, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading patents file: %w", err)
	}

	return patents, nil
}

// WritePatents writes patents to a JSONL file, replacing existing content.
// The file is written to a temp file and renamed so a crash never leaves a partial cache.
func WritePatents(path string, patents []patent.Patent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating patents file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, p := range patents {
		if err := enc.Encode(p); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encoding patent %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing patents file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing patents file: %w", err)
	}

	return os.Rename(tmpPath, path)
}
