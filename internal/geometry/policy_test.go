package geometry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsWhenUnset(t *testing.T) {
	rp, err := Resolve(SolverPolicy{})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, rp.Timeout)
}

func TestResolveParsesDuration(t *testing.T) {
	rp, err := Resolve(SolverPolicy{Timeout: "500ms"})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, rp.Timeout)
}

func TestResolveRejectsMalformedDuration(t *testing.T) {
	_, err := Resolve(SolverPolicy{Timeout: "not-a-duration"})
	assert.Error(t, err)
}

func TestVerifyWithPolicyCompletesBeforeTimeout(t *testing.T) {
	rp := ResolvedPolicy{Timeout: 100 * time.Millisecond}
	ran := false
	timedOut := VerifyWithPolicy(func() { ran = true }, rp)
	assert.False(t, timedOut)
	assert.True(t, ran)
}

func TestVerifyWithPolicyTimesOut(t *testing.T) {
	rp := ResolvedPolicy{Timeout: 10 * time.Millisecond}
	done := make(chan struct{})
	timedOut := VerifyWithPolicy(func() {
		<-done
	}, rp)
	close(done)
	assert.True(t, timedOut)
}
