package engine

import "testing"

func TestCounter_NextIsAlwaysGreater(t *testing.T) {
	for v := 0; v < 256; v++ {
		a := newCounter(uint8(v))
		b := a.Next()
		if b.Compare(a) <= 0 {
			t.Fatalf("counter %d: next().compare(a) = %d, want > 0", v, b.Compare(a))
		}
	}
}

func TestCounter_WrapsAfter256(t *testing.T) {
	c := newCounter(0)
	for i := 0; i < 256; i++ {
		c = c.Next()
	}
	if c != newCounter(0) {
		t.Fatalf("counter after 256 increments = %d, want 0", c)
	}
}

func TestCounter_CompareWithinDriftWindow(t *testing.T) {
	a := newCounter(10)
	b := newCounter(20)
	if a.Compare(b) >= 0 {
		t.Errorf("10.compare(20) = %d, want < 0", a.Compare(b))
	}
	if b.Compare(a) <= 0 {
		t.Errorf("20.compare(10) = %d, want > 0", b.Compare(a))
	}
}

func TestCounter_CompareOutsideDriftWindowFlips(t *testing.T) {
	// |200 - 10| = 190 > 63, so the naive ordering flips: 10 reads as
	// "after" 200 even though 200 was written later in real time, which
	// is exactly the bounded-drift trade-off this type accepts.
	a := newCounter(10)
	b := newCounter(200)
	if a.Compare(b) <= 0 {
		t.Errorf("10.compare(200) = %d, want > 0 (drift flip)", a.Compare(b))
	}
}

func Test384IncrementsWrapsToOneTwentyEight(t *testing.T) {
	c := newCounter(0)
	for i := 0; i < 384; i++ {
		c = c.Next()
	}
	if c != newCounter(128) {
		t.Fatalf("384 increments from 0 = %d, want 128", c)
	}
}
