package engine

// Counter is a single-byte monotonic version, used inside a versionedLink
// to tell which of its two slots is newer. It wraps modulo 256 and is only
// meaningful when comparing two updates of the *same* logical link taken
// within a 64-tick drift window (see Compare).
type Counter uint8

// newCounter returns a Counter with the given initial value.
func newCounter(v uint8) Counter { return Counter(v) }

// Increment returns the next counter value, wrapping modulo 256.
func (c Counter) Increment() Counter { return c + 1 }

// Next is an alias for Increment kept for readability at call sites that
// want "a fresh counter one ahead of c". Neither method modifies c.
func (c Counter) Next() Counter { return c.Increment() }

// Compare implements the bounded-drift comparison from the spec: given
// counters a (receiver) and b, diff = |b-a|, native = signum(a-b); if
// diff > 63 the result is the wraparound flip (1 - native), else native.
//
// Compare is not a total order beyond the 64-tick window — callers must
// ensure the two values being compared are updates of the same link taken
// within drift, or the result is meaningless.
func (a Counter) Compare(b Counter) int {
	diff := int(b) - int(a)
	if diff < 0 {
		diff = -diff
	}
	native := signum(int(a) - int(b))
	if diff > 63 {
		return 1 - native
	}
	return native
}

func signum(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
