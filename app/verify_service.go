package app

import (
	"context"

	"go.uber.org/zap"

	"replipack/domain/verdict"
	"replipack/internal/pack"
	"replipack/ports"
)

// VerifyService classifies an existing run directory. Verification is
// read-only: it never touches the artefacts it judges.
type VerifyService struct {
	verifier *pack.Verifier
}

// NewVerifyService creates the verification service.
func NewVerifyService(rng ports.RNGPort, logger *zap.Logger) *VerifyService {
	return &VerifyService{verifier: pack.NewVerifier(rng, logger)}
}

// Run verifies a run directory and returns the verdict.
func (s *VerifyService) Run(ctx context.Context, dir string) (verdict.Verdict, error) {
	return s.verifier.Verify(ctx, dir)
}
