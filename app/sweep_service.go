package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"replipack/domain/artefact"
	"replipack/domain/verdict"
)

// SweepService runs the generate+verify pipeline across a set of seeds.
// Each seed gets its own output directory, so runs stay isolated and can
// execute in parallel without any shared mutable state.
type SweepService struct {
	gen    *GenerateService
	ver    *VerifyService
	logger *zap.Logger
}

// NewSweepService creates the sweep service.
func NewSweepService(gen *GenerateService, ver *VerifyService, logger *zap.Logger) *SweepService {
	return &SweepService{gen: gen, ver: ver, logger: logger}
}

// SweepOutcome is the result of one seed's run.
type SweepOutcome struct {
	Seed    int64          `json:"seed"`
	Dir     string         `json:"dir"`
	Verdict verdict.Status `json:"verdict"`
	Err     string         `json:"error,omitempty"`
}

// Run executes one isolated run per seed under outRoot, with at most
// parallelism runs in flight. A failed seed does not abort the others; its
// outcome carries the error.
func (s *SweepService) Run(ctx context.Context, base artefact.RunConfig, seeds []int64, outRoot string, parallelism int) ([]SweepOutcome, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	outcomes := make([]SweepOutcome, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			cfg := base
			cfg.Seed = seed
			cfg.OutDir = filepath.Join(outRoot, fmt.Sprintf("seed_%d", seed))

			outcome := SweepOutcome{Seed: seed, Dir: cfg.OutDir}
			if _, err := s.gen.Run(ctx, cfg, true); err != nil {
				outcome.Err = err.Error()
				outcomes[i] = outcome
				return nil
			}

			v, err := s.ver.Run(ctx, cfg.OutDir)
			if err != nil {
				outcome.Err = err.Error()
			} else {
				outcome.Verdict = v.Status
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		s.logger.Info("sweep outcome",
			zap.Int64("seed", o.Seed),
			zap.String("verdict", string(o.Verdict)),
			zap.String("error", o.Err))
	}
	return outcomes, nil
}
