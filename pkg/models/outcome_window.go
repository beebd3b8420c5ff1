package models

// OutcomeWindowSize is how many trailing review outcomes a record retains.
const OutcomeWindowSize = 3

// OutcomeWindow is the trailing window of review outcomes for a record,
// oldest first, encoded as '1' (success) and '0' (failure) so it persists
// as a plain text column. At most OutcomeWindowSize outcomes are kept.
type OutcomeWindow string

// Push appends an outcome, evicting the oldest entry once the window is full.
func (w OutcomeWindow) Push(success bool) OutcomeWindow {
	c := byte('0')
	if success {
		c = '1'
	}
	next := string(w) + string(c)
	if len(next) > OutcomeWindowSize {
		next = next[len(next)-OutcomeWindowSize:]
	}
	return OutcomeWindow(next)
}

// TrailingSuccesses reports whether the window holds at least n outcomes and
// the most recent n were all successes.
func (w OutcomeWindow) TrailingSuccesses(n int) bool {
	return w.trailing(n, '1')
}

// TrailingFailures reports whether the window holds at least n outcomes and
// the most recent n were all failures.
func (w OutcomeWindow) TrailingFailures(n int) bool {
	return w.trailing(n, '0')
}

func (w OutcomeWindow) trailing(n int, c byte) bool {
	if n <= 0 || len(w) < n {
		return false
	}
	for i := len(w) - n; i < len(w); i++ {
		if w[i] != c {
			return false
		}
	}
	return true
}
