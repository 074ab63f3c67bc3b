// Package artifact defines the on-disk layout of a pipeline run's outputs
// and reads and writes the individual artifact files.
//
// A run writes every artifact into one directory named by Prefix. The same
// names are used as object store keys under the same prefix.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact file names.
const (
	KeyEmbeddings = "embeddings_normalized.npy"
	KeyIndex      = "patent_similarity.index"
	KeyDatabase   = "patents.db"
	KeyTopicMap   = "topic_map.json"
	KeyManifest   = "manifest.json"

	// KeyPatentToIdx is the legacy mapping of patent number to embedding row.
	KeyPatentToIdx = "patent_to_idx.pkl"
)

// Keys lists the artifacts written by a pipeline run, in upload order.
// The manifest comes last so a reader never sees it before the files it names.
var Keys = []string{KeyEmbeddings, KeyIndex, KeyDatabase, KeyTopicMap, KeyManifest}

// Prefix returns the artifact prefix for a dataset type, e.g. "outputs_sample".
func Prefix(datasetType string) string {
	return "outputs_" + strings.ToLower(datasetType)
}

// Dir is a local artifact directory.
type Dir string

// Path returns the local path of the artifact named key.
func (d Dir) Path(key string) string {
	return filepath.Join(string(d), key)
}

// Paths returns the local paths of keys.
func (d Dir) Paths(keys []string) []string {
	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = d.Path(k)
	}
	return paths
}

// Missing returns the keys that do not exist in the directory.
func (d Dir) Missing(keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, err := os.Stat(d.Path(k)); err != nil {
			missing = append(missing, k)
		}
	}
	return missing
}

// writeAtomic writes a file through a temp file and rename.
func writeAtomic(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
		}
		return nil
	})
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
