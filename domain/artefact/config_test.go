package artefact

import (
	"testing"
)

func validConfig() RunConfig {
	return DefaultRunConfig("./out", 42)
}

func TestDefaultRunConfigValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("published defaults should validate, got: %v", err)
	}
}

func TestRunConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"negative seed", func(c *RunConfig) { c.Seed = -1 }},
		{"single level", func(c *RunConfig) { c.Levels = c.Levels[:1] }},
		{"duplicate level id", func(c *RunConfig) { c.Levels[1].ID = c.Levels[0].ID }},
		{"level too small", func(c *RunConfig) { c.Levels[0].N = 1 }},
		{"shift unknown level", func(c *RunConfig) { c.Shift.From = "nope" }},
		{"shift disagrees with means", func(c *RunConfig) { c.Shift.Value = 0.5 }},
		{"non-positive target F", func(c *RunConfig) { c.TargetF = 0 }},
		{"non-positive tolerance", func(c *RunConfig) { c.TolMean = 0 }},
		{"inverted scale range", func(c *RunConfig) { c.ScaleMin, c.ScaleMax = 2, 1 }},
		{"empty out dir", func(c *RunConfig) { c.OutDir = "" }},
		{"odd condition n", func(c *RunConfig) { c.Conditions.N = 511 }},
		{"zero replicates", func(c *RunConfig) { c.Conditions.Replicates = 0 }},
		{"zero attempt budget", func(c *RunConfig) { c.Conditions.MaxAttempts = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLevelFilename(t *testing.T) {
	l := Level{ID: "ctrl", TargetMean: 0.9978, N: 40}
	if got := l.Filename(); got != "raw_level_ctrl.csv" {
		t.Errorf("Filename() = %q, want raw_level_ctrl.csv", got)
	}
}

func TestLevelByID(t *testing.T) {
	cfg := validConfig()

	if l, ok := cfg.LevelByID("pi8"); !ok || l.TargetMean != 0.9457 {
		t.Errorf("LevelByID(pi8) = %+v, %v", l, ok)
	}
	if _, ok := cfg.LevelByID("missing"); ok {
		t.Error("LevelByID should miss for an unknown id")
	}
}

func TestManifestAddRejectsDuplicates(t *testing.T) {
	m := &Manifest{}
	entry := ManifestEntry{Filename: "raw_level_ctrl.csv", Hash: "abc", SizeBytes: 10}

	if err := m.Add(entry); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if err := m.Add(entry); err == nil {
		t.Error("expected duplicate filename to be rejected")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManifestLookup(t *testing.T) {
	m := &Manifest{}
	_ = m.Add(ManifestEntry{Filename: "a.csv", Hash: "h1", SizeBytes: 1})
	_ = m.Add(ManifestEntry{Filename: "b.csv", Hash: "h2", SizeBytes: 2})

	if e, ok := m.Lookup("b.csv"); !ok || e.Hash != "h2" {
		t.Errorf("Lookup(b.csv) = %+v, %v", e, ok)
	}
	if _, ok := m.Lookup("c.csv"); ok {
		t.Error("Lookup should miss for an absent file")
	}
}
