package artefact

import (
	"fmt"

	"replipack/domain/core"
)

// Level is one experimental group: a named condition with a target mean and
// a fixed number of replicate samples.
type Level struct {
	ID         core.LevelID `json:"id"`
	TargetMean float64      `json:"target_mean"`
	N          int          `json:"n"`
	Samples    []float64    `json:"-"`
}

// Validate checks the level definition before any generation happens.
func (l Level) Validate() error {
	if l.ID == "" {
		return core.NewConfigurationError("level.id", "cannot be empty")
	}
	if l.N < 2 {
		return core.NewInsufficientSamplesError(l.ID.String(), l.N)
	}
	return nil
}

// Filename returns the artefact file name for this level.
func (l Level) Filename() string {
	return fmt.Sprintf("raw_level_%s.csv", l.ID)
}

// Shift prescribes the difference between two named levels' means:
// mean(To) - mean(From) == Value, within the calibration tolerance.
type Shift struct {
	From  core.LevelID `json:"from"`
	To    core.LevelID `json:"to"`
	Value float64      `json:"value"`
}

// Artefact is one file produced by a generation run. Never mutated after
// creation within a run.
type Artefact struct {
	Filename  string         `json:"filename"`
	Path      string         `json:"path"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// ManifestEntry records the content hash and byte size of one artefact.
type ManifestEntry struct {
	Filename  string    `json:"filename"`
	Hash      core.Hash `json:"hash"`
	SizeBytes int64     `json:"size_bytes"`
}

// Manifest is the ordered, 1:1 cover of all artefacts produced by a run.
// Entry order reflects file creation order.
type Manifest struct {
	Entries []ManifestEntry `json:"entries"`
}

// Add appends an entry, rejecting duplicate filenames.
func (m *Manifest) Add(entry ManifestEntry) error {
	for _, e := range m.Entries {
		if e.Filename == entry.Filename {
			return core.NewConfigurationError("manifest", "duplicate entry for "+entry.Filename)
		}
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// Lookup returns the entry for a filename.
func (m *Manifest) Lookup(filename string) (ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.Filename == filename {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}
