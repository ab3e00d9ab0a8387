package engine

import "testing"

func TestDocID_SentinelsIdentified(t *testing.T) {
	if !ZeroID.IsZero() {
		t.Error("ZeroID.IsZero() = false")
	}
	if ZeroID.IsNeutral() {
		t.Error("ZeroID.IsNeutral() = true")
	}
	if !NeutralID.IsNeutral() {
		t.Error("NeutralID.IsNeutral() = false")
	}
	if NeutralID.IsZero() {
		t.Error("NeutralID.IsZero() = true")
	}
	for i, b := range NeutralID {
		if b != 0x7F {
			t.Fatalf("NeutralID[%d] = %#x, want 0x7F", i, b)
		}
	}
}

func TestDocID_CompareTotalOrder(t *testing.T) {
	low := DocID{0x00, 0x00, 0x01}
	high := DocID{0x00, 0x00, 0x02}
	if low.Compare(high) >= 0 {
		t.Errorf("low.Compare(high) = %d, want < 0", low.Compare(high))
	}
	if high.Compare(low) <= 0 {
		t.Errorf("high.Compare(low) = %d, want > 0", high.Compare(low))
	}
	if low.Compare(low) != 0 {
		t.Errorf("low.Compare(low) = %d, want 0", low.Compare(low))
	}
}

func TestNewDocID_NeverProducesSentinels(t *testing.T) {
	for i := 0; i < 2000; i++ {
		id, err := NewDocID()
		if err != nil {
			t.Fatalf("NewDocID: %v", err)
		}
		if id.IsZero() || id.IsNeutral() {
			t.Fatalf("NewDocID produced a sentinel: %s", id)
		}
	}
}

func TestAvoidSentinels_NudgesLastByte(t *testing.T) {
	zero := ZeroID
	avoidSentinels(&zero)
	if zero.IsZero() {
		t.Error("avoidSentinels left a zero id unchanged")
	}
	if zero[idSize-1] != 0x01 {
		t.Errorf("avoidSentinels(zero) last byte = %#x, want 0x01", zero[idSize-1])
	}

	neutral := NeutralID
	avoidSentinels(&neutral)
	if neutral.IsNeutral() {
		t.Error("avoidSentinels left a neutral id unchanged")
	}
	if neutral[idSize-1] != 0x7E {
		t.Errorf("avoidSentinels(neutral) last byte = %#x, want 0x7E", neutral[idSize-1])
	}
}

func TestDocID_String_IsHex(t *testing.T) {
	if len(NeutralID.String()) != idSize*2 {
		t.Errorf("String() length = %d, want %d", len(NeutralID.String()), idSize*2)
	}
}
