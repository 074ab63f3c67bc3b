package vecindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// CurrentIndexVersion is the on-disk format version.
// Increment this when making breaking changes to the index format.
const CurrentIndexVersion = 1

// indexFile is the gob-encoded form of an Index.
type indexFile struct {
	Version int
	Metric  Metric
	Dims    int
	IDs     []string
	Rows    []float64 // Row-major, len(IDs)*Dims values
}

// Save writes the index to path, replacing any existing file atomically.
func (idx *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	file := indexFile{
		Version: CurrentIndexVersion,
		Metric:  idx.metric,
		Dims:    idx.dims,
		IDs:     idx.ids,
	}
	if idx.rows != nil {
		file.Rows = idx.rows.RawMatrix().Data
	}

	// Write to a temp file first, then rename for atomicity
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(&file); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Load reads an index written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if file.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'ptm run')",
			ErrUnsupportedVersion, file.Version, CurrentIndexVersion)
	}
	if len(file.Rows) != len(file.IDs)*file.Dims {
		return nil, fmt.Errorf("corrupt index: %d values for %d rows of %d dimensions",
			len(file.Rows), len(file.IDs), file.Dims)
	}

	metric, err := ParseMetric(string(file.Metric))
	if err != nil {
		return nil, fmt.Errorf("corrupt index: %w", err)
	}
	if len(file.IDs) > 0 && file.Dims <= 0 {
		return nil, fmt.Errorf("corrupt index: %d rows of %d dimensions", len(file.IDs), file.Dims)
	}

	idx := &Index{
		metric:    metric,
		dims:      file.Dims,
		ids:       file.IDs,
		positions: make(map[string]int, len(file.IDs)),
	}
	for i, id := range file.IDs {
		if _, exists := idx.positions[id]; exists {
			return nil, fmt.Errorf("corrupt index: %w: %s", ErrDuplicateID, id)
		}
		idx.positions[id] = i
	}
	if len(file.IDs) > 0 {
		idx.rows = mat.NewDense(len(file.IDs), file.Dims, file.Rows)
	}

	return idx, nil
}
