package artefact

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"replipack/domain/core"
)

// KitVersion identifies the reconstruction pack release.
const KitVersion = "6.2R"

// RunManifest is the truth source for replay: the complete configuration
// used by a run plus the list of files it produced. It must exist before a
// run can be verified.
type RunManifest struct {
	RunID       core.RunID     `json:"run_id"`
	KitVersion  string         `json:"kit_version"`
	Seed        int64          `json:"seed"`
	Config      RunConfig      `json:"config"`
	Files       []string       `json:"files"`
	Fingerprint RunFingerprint `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
	Verdict     string         `json:"verdict,omitempty"`
}

// RunFingerprint ensures deterministic replay: two runs with the same
// fingerprint must produce byte-identical artefacts.
type RunFingerprint struct {
	Seed        int64           `json:"seed"`
	ConfigHash  core.ConfigHash `json:"config_hash"`
	KitVersion  string          `json:"kit_version"`
	Fingerprint core.Hash       `json:"fingerprint"`
}

// NewRunManifest creates a run manifest for a validated configuration.
func NewRunManifest(runID core.RunID, cfg RunConfig, files []string) *RunManifest {
	return &RunManifest{
		RunID:       runID,
		KitVersion:  KitVersion,
		Seed:        cfg.Seed,
		Config:      cfg,
		Files:       files,
		Fingerprint: NewRunFingerprint(cfg),
		CreatedAt:   core.Now(),
	}
}

// NewRunFingerprint derives the determinism fingerprint from everything the
// generator's output depends on. RunID and timestamps are deliberately
// excluded: they vary between runs that must still be byte-identical.
func NewRunFingerprint(cfg RunConfig) RunFingerprint {
	configHash := hashConfig(cfg)
	data := fmt.Sprintf("seed:%d|config:%s|kit:%s", cfg.Seed, configHash, KitVersion)
	sum := sha256.Sum256([]byte(data))

	return RunFingerprint{
		Seed:        cfg.Seed,
		ConfigHash:  configHash,
		KitVersion:  KitVersion,
		Fingerprint: core.Hash(fmt.Sprintf("%x", sum)),
	}
}

// hashConfig canonicalizes the config through its JSON encoding. Struct
// field order is fixed at compile time, so the encoding is stable.
func hashConfig(cfg RunConfig) core.ConfigHash {
	// OutDir is location, not content: exclude it so the same experiment in
	// a different directory fingerprints identically.
	cfg.OutDir = ""
	raw, err := json.Marshal(cfg)
	if err != nil {
		// RunConfig contains only plain values; Marshal cannot fail.
		panic(err)
	}
	return core.NewConfigHash(raw)
}

// Validate checks if the manifest is complete.
func (m *RunManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewConfigurationError("run_manifest", "run_id cannot be empty")
	}
	if m.KitVersion == "" {
		return core.NewConfigurationError("run_manifest", "kit_version cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewConfigurationError("run_manifest", "fingerprint cannot be empty")
	}
	if len(m.Files) == 0 {
		return core.NewConfigurationError("run_manifest", "file list cannot be empty")
	}
	// A manifest is only usable if the configuration it records could drive
	// a run: replay and classification both read their parameters from it.
	if err := m.Config.Validate(); err != nil {
		return err
	}
	return nil
}
