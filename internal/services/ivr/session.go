package ivr

import (
	"time"
)

// Session is the progress ledger of one in-flight call: the node history,
// per-node retry counters and the terminal outcome once reached. It belongs
// to exactly one device/call pair, so it needs no internal locking.
type Session struct {
	ID     string
	FlowID string

	CampaignID string
	ContactID  string
	DeviceID   string
	ScheduleID string
	Phone      string

	CurrentKey  string
	History     []string
	Digits      []string
	RetryCounts map[string]int

	Outcome        Outcome
	TransferNumber string

	StartedAt   time.Time
	FinalizedAt time.Time
	finalized   bool
}

// NewSession starts a session positioned at the flow's entry node
func NewSession(id, flowID, entryKey string) *Session {
	return &Session{
		ID:          id,
		FlowID:      flowID,
		CurrentKey:  entryKey,
		History:     []string{entryKey},
		RetryCounts: make(map[string]int),
		StartedAt:   time.Now(),
	}
}

// RecordTransition moves the session to toKey and resets its retry counter
func (s *Session) RecordTransition(toKey string) {
	s.CurrentKey = toKey
	s.History = append(s.History, toKey)
	s.RetryCounts[toKey] = 0
}

// RecordRetry bumps the retry counter for nodeKey and returns the new count
func (s *Session) RecordRetry(nodeKey string) int {
	s.RetryCounts[nodeKey]++
	return s.RetryCounts[nodeKey]
}

// Retries returns the current retry count for nodeKey
func (s *Session) Retries(nodeKey string) int {
	return s.RetryCounts[nodeKey]
}

// RecordDigit appends a pressed digit to the per-step trace
func (s *Session) RecordDigit(digit string) {
	s.Digits = append(s.Digits, digit)
}

// LastDigit returns the last digit the callee pressed, or ""
func (s *Session) LastDigit() string {
	if len(s.Digits) == 0 {
		return ""
	}
	return s.Digits[len(s.Digits)-1]
}

// Finalize freezes the session with its terminal outcome. Subsequent calls
// are no-ops.
func (s *Session) Finalize(outcome Outcome) {
	if s.finalized {
		return
	}
	s.Outcome = outcome
	s.FinalizedAt = time.Now()
	s.finalized = true
}

// Finalized reports whether the session has reached a terminal state
func (s *Session) Finalized() bool {
	return s.finalized
}

// Duration is the wall-clock time since the session started. After
// finalization it is fixed at the time Finalize was called.
func (s *Session) Duration() time.Duration {
	if s.finalized {
		return s.FinalizedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}
