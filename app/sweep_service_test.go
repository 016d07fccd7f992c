package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"replipack/domain/verdict"
	"replipack/internal/logging"
)

func TestSweepRunsEverySeed(t *testing.T) {
	root := t.TempDir()
	gen, ver := newTestServices()
	sweep := NewSweepService(gen, ver, logging.Nop())

	seeds := []int64{42, 43, 44}
	base := testRunConfig(root, 0)

	outcomes, err := sweep.Run(context.Background(), base, seeds, root, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, len(seeds))

	for i, o := range outcomes {
		require.Equal(t, seeds[i], o.Seed, "outcomes keep seed order")
		require.Empty(t, o.Err)
		require.Equal(t, verdict.StatusPass, o.Verdict, "seed %d", o.Seed)
		require.Equal(t, filepath.Join(root, fmt.Sprintf("seed_%d", o.Seed)), o.Dir)
	}
}

// TestSweepIsolatesFailures: one bad seed must not abort the others.
func TestSweepIsolatesFailures(t *testing.T) {
	root := t.TempDir()
	gen, ver := newTestServices()
	sweep := NewSweepService(gen, ver, logging.Nop())

	base := testRunConfig(root, 0)
	outcomes, err := sweep.Run(context.Background(), base, []int64{-1, 42}, root, 1)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	require.NotEmpty(t, outcomes[0].Err, "negative seed should fail its own run")
	require.Empty(t, outcomes[1].Err)
	require.Equal(t, verdict.StatusPass, outcomes[1].Verdict)
}
