package registration

// RetryState counts the credential fetch attempts of one registration cycle.
// Attempt is zero-based.
type RetryState struct {
	Cycle   uint64
	Attempt int
}

func (s RetryState) Next() RetryState {
	return RetryState{Cycle: s.Cycle, Attempt: s.Attempt + 1}
}

// CanRetry reports whether another attempt fits into maxAttempts.
func (s RetryState) CanRetry(maxAttempts int) bool {
	return s.Attempt+1 < maxAttempts
}
