package syntonerr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("embedder", WithMaxFailures(3), WithResetTimeout(time.Second))

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}

	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_RecoversAfterResetTimeout(t *testing.T) {
	b := NewBreaker("embedder", WithMaxFailures(2), WithResetTimeout(20*time.Millisecond))

	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_SuccessClosesBreaker(t *testing.T) {
	b := NewBreaker("embedder", WithMaxFailures(1))
	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())
	assert.Equal(t, 0, b.Failures())
}

func TestError_IsMatchesByKind(t *testing.T) {
	err := Wrap(NotFound, "node missing", nil)
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, Conflict))
	assert.Equal(t, NotFound, Of(err))
}

func TestParseError_CarriesPosition(t *testing.T) {
	err := ParseError(12, "IDENTIFIER", "KEYWORD")
	assert.Equal(t, 12, err.Offset)
	assert.Contains(t, err.Error(), "offset 12")
}
