package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrConfiguration       = errors.New("invalid configuration")
	ErrInsufficientSamples = errors.New("insufficient samples per level")

	// Calibration errors
	ErrCalibrationUnreachable = errors.New("calibration target unreachable")

	// I/O errors
	ErrIOWrite         = errors.New("artefact write failed")
	ErrIORead          = errors.New("artefact read failed")
	ErrOutputCollision = errors.New("output directory already in use")

	// Verification errors
	ErrIntegrity     = errors.New("hash mismatch")
	ErrNotComparable = errors.New("run not comparable")
)

// Error constructors with context
func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewInsufficientSamplesError(level string, n int) error {
	return fmt.Errorf("%w: level %s has n=%d, need n>=2", ErrInsufficientSamples, level, n)
}

// NewCalibrationError reports the admissible range that was searched and the
// F value actually achieved, so the failure is auditable.
func NewCalibrationError(targetF, achievedF, lo, hi float64) error {
	return fmt.Errorf("%w: target F=%g, achieved F=%g, scale searched in [%g, %g]",
		ErrCalibrationUnreachable, targetF, achievedF, lo, hi)
}

func NewWriteError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIOWrite, path, err)
}

func NewReadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIORead, path, err)
}

func NewIntegrityError(filename string, want, got Hash) error {
	return fmt.Errorf("%w: %s: manifest %s, recomputed %s", ErrIntegrity, filename, want, got)
}

func NewNotComparableError(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotComparable, reason)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInsufficientSamples)
}

func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

func IsNotComparableError(err error) bool {
	return errors.Is(err, ErrNotComparable)
}
