package hupd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
)

// Loader produces the patents of a dataset split, backed by a disk cache.
type Loader struct {
	client      *Client
	cacheDir    string
	grantedOnly bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithGrantedOnly drops applications without a patent number (default true).
func WithGrantedOnly(v bool) LoaderOption {
	return func(l *Loader) {
		l.grantedOnly = v
	}
}

// NewLoader creates a loader caching under cacheDir.
func NewLoader(client *Client, cacheDir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		client:      client,
		cacheDir:    cacheDir,
		grantedOnly: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// recordsPath returns the JSONL cache path of a split.
func (l *Loader) recordsPath(datasetType string, split Split) string {
	name := datasetType + "_" + string(split)
	if l.grantedOnly {
		name += "_granted"
	}
	return filepath.Join(l.cacheDir, name+".jsonl")
}

// Load returns the patents of split, ordered by filing date then application number.
// Archives and parsed records are cached; nothing is re-downloaded on a cache hit.
func (l *Loader) Load(ctx context.Context, split Split, datasetType string) ([]patent.Patent, error) {
	datasetType = strings.ToLower(datasetType)
	ws, err := Windows(datasetType, split)
	if err != nil {
		return nil, err
	}

	cachePath := l.recordsPath(datasetType, split)
	if _, err := os.Stat(cachePath); err == nil {
		patents, err := storage.ReadPatents(cachePath)
		if err != nil {
			return nil, fmt.Errorf("reading record cache: %w", err)
		}
		logging.Infof("Loaded %d %s/%s patents from %s", len(patents), datasetType, split, cachePath)
		return patents, nil
	}

	var patents []patent.Patent
	seen := map[string]bool{}
	for _, name := range Archives(datasetType, ws) {
		dest := filepath.Join(l.cacheDir, filepath.Base(name))
		cached, err := l.client.Fetch(ctx, name, dest)
		if err != nil {
			return nil, err
		}
		if cached {
			logging.Debugf("Using cached archive %s", dest)
		} else {
			logging.Infof("Downloaded %s", dest)
		}

		n, err := l.readArchive(dest, ws, seen, &patents)
		if err != nil {
			return nil, err
		}
		logging.Infof("Kept %d patents from %s", n, filepath.Base(name))
	}

	sort.SliceStable(patents, func(i, j int) bool {
		a, b := patents[i], patents[j]
		if !a.FilingDate.Equal(b.FilingDate) {
			return a.FilingDate.Before(b.FilingDate)
		}
		return a.ID < b.ID
	})

	if err := storage.WritePatents(cachePath, patents); err != nil {
		return nil, fmt.Errorf("writing record cache: %w", err)
	}
	return patents, nil
}

func (l *Loader) readArchive(path string, ws []Window, seen map[string]bool, out *[]patent.Patent) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	kept := 0
	err = ParseArchive(f, func(p patent.Patent) error {
		if l.grantedOnly && !p.Granted() {
			return nil
		}
		if p.ID == "" || seen[p.ID] || !inWindows(p, ws) {
			return nil
		}
		seen[p.ID] = true
		*out = append(*out, p)
		kept++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return kept, nil
}

func inWindows(p patent.Patent, ws []Window) bool {
	if p.FilingDate.IsZero() {
		return false
	}
	for _, w := range ws {
		if w.Contains(p.FilingDate) {
			return true
		}
	}
	return false
}
