package artifact

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ManifestVersion is the current manifest format.
const ManifestVersion = 1

// Manifest describes one pipeline run's artifact set.
//
// Topic IDs are assigned by a topic model trained without a fixed seed, so they
// only have meaning together with the RunID that produced them.
type Manifest struct {
	Version     int       `json:"version"`
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	DatasetType string    `json:"dataset_type"`
	Split       string    `json:"split"`
	Model       string    `json:"model"`
	Dimensions  int       `json:"dimensions"`
	Metric      string    `json:"metric"`
	Patents     int       `json:"patents"`
	Topics      int       `json:"topics"`
	Keys        []string  `json:"keys"`
}

// NewManifest returns a manifest with a fresh run ID.
func NewManifest(datasetType, split string) *Manifest {
	return &Manifest{
		Version:     ManifestVersion,
		RunID:       uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		DatasetType: datasetType,
		Split:       split,
		Keys:        append([]string(nil), Keys...),
	}
}

// WriteManifest writes m to path.
func WriteManifest(path string, m *Manifest) error {
	return WriteJSON(path, m)
}

// ReadManifest reads and validates a manifest.
func ReadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := ReadJSON(path, &m); err != nil {
		return nil, err
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("manifest version %d not supported (want %d)", m.Version, ManifestVersion)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return nil, fmt.Errorf("manifest run id: %w", err)
	}
	return &m, nil
}
