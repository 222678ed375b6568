package ivr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTrace(t *testing.T) {
	s := NewSession("call-1", "flow-1", "main")
	require.Equal(t, []string{"main"}, s.History)
	require.Equal(t, "main", s.CurrentKey)

	s.RecordDigit("1")
	s.RecordTransition("sales")
	s.RecordDigit("2")
	s.RecordTransition("checkout")

	assert.Equal(t, []string{"main", "sales", "checkout"}, s.History)
	assert.Equal(t, "checkout", s.CurrentKey)
	assert.Equal(t, "2", s.LastDigit())
}

func TestSessionRetryBookkeeping(t *testing.T) {
	s := NewSession("call-1", "flow-1", "main")

	assert.Equal(t, 1, s.RecordRetry("main"))
	assert.Equal(t, 2, s.RecordRetry("main"))
	assert.Equal(t, 2, s.Retries("main"))

	s.RecordTransition("sales")
	assert.Equal(t, 0, s.Retries("sales"))
	assert.Equal(t, 2, s.Retries("main")) // old counter is kept for the trace
}

func TestSessionFinalizeIsIdempotent(t *testing.T) {
	s := NewSession("call-1", "flow-1", "main")
	require.False(t, s.Finalized())

	s.Finalize(OutcomeEnded)
	require.True(t, s.Finalized())
	first := s.FinalizedAt

	s.Finalize(OutcomeExhausted)
	assert.Equal(t, OutcomeEnded, s.Outcome)
	assert.Equal(t, first, s.FinalizedAt)
}

func TestSessionDurationFrozenAfterFinalize(t *testing.T) {
	s := NewSession("call-1", "flow-1", "main")
	s.Finalize(OutcomeEnded)
	d := s.Duration()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, d, s.Duration())
}

func TestMemorySessionStorePutGetDelete(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)

	s := NewSession("call-1", "flow-1", "main")
	store.Put(s)

	got, ok := store.Get("call-1")
	require.True(t, ok)
	assert.Same(t, s, got)

	store.Delete("call-1")
	_, ok = store.Get("call-1")
	assert.False(t, ok)
}

func TestMemorySessionStoreSweepsExpiredOnRead(t *testing.T) {
	store := NewMemorySessionStore(20 * time.Millisecond)

	store.Put(NewSession("old", "flow-1", "main"))
	time.Sleep(40 * time.Millisecond)
	store.Put(NewSession("fresh", "flow-1", "main"))

	// Reading anything sweeps the expired entry
	_, ok := store.Get("old")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	_, ok = store.Get("fresh")
	assert.True(t, ok)
}
