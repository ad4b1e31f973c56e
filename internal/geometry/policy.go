package geometry

import (
	"fmt"
	"time"
)

// SolverPolicy is the caller-supplied time limit for one Verify
// invocation, adapted from the teacher's plugin sandbox SecurityPolicy
// (MaxMemory/MaxCPU/Timeout string parsing): plugin sandboxing itself is
// out of scope here, but the same string-duration parsing discipline is
// reused.
type SolverPolicy struct {
	Timeout string // e.g. "500ms"; empty means Resolve's 2s default
}

// ResolvedPolicy is SolverPolicy after its duration string has been parsed,
// the form Verify and its pipeline caller actually consume.
type ResolvedPolicy struct {
	Timeout time.Duration
}

// Resolve parses p's Timeout field, defaulting to a generous but finite
// bound when unset so a pathological layout tree can never hang the
// pipeline indefinitely.
func Resolve(p SolverPolicy) (ResolvedPolicy, error) {
	if p.Timeout == "" {
		return ResolvedPolicy{Timeout: 2 * time.Second}, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return ResolvedPolicy{}, fmt.Errorf("invalid solver timeout %q: %w", p.Timeout, err)
	}
	return ResolvedPolicy{Timeout: d}, nil
}

// VerifyWithPolicy runs verify under rp's timeout: the solve itself is
// bounded-domain interval propagation (smt.Problem.Solve's own maxRounds
// cap), so in practice this is a last-resort belt for a layout tree large
// enough to make propagation slow. The deadline covers the whole callback,
// so quick-reject and aesthetics checks run under it too; the solver step
// is not timed on its own.
func VerifyWithPolicy(verify func(), rp ResolvedPolicy) (timedOut bool) {
	done := make(chan struct{})
	go func() {
		verify()
		close(done)
	}()

	select {
	case <-done:
		return false
	case <-time.After(rp.Timeout):
		return true
	}
}
