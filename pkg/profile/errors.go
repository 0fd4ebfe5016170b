package profile

import "errors"

// Engine error kinds. Operations wrap these with context via fmt.Errorf,
// so callers classify failures with errors.Is.
var (
	// ErrDegenerateInput reports inputs the requested operation has no
	// answer for: zero or negative total flux where containment or a
	// centroid is requested, or empty bounds where samples are required.
	ErrDegenerateInput = errors.New("profile: degenerate input")

	// ErrConfigurationViolation reports a requested discretization that
	// exceeds the configured limits (typically MaximumFFTSize). The
	// engine refuses rather than silently truncating.
	ErrConfigurationViolation = errors.New("profile: configuration limit exceeded")

	// ErrSearchDidNotConverge reports an adaptive search (stepK, maxK or
	// flux containment) that exhausted its search space or iteration
	// budget without reaching its target.
	ErrSearchDidNotConverge = errors.New("profile: search did not converge")
)
