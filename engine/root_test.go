package engine

import (
	"errors"
	"testing"

	"github.com/streamdb-engine/streamdb/streamio"
)

func TestLoadRoot_InitialisesEmptyStream(t *testing.T) {
	stream := streamio.NewMemoryStream()
	r, err := loadRoot(stream)
	if err != nil {
		t.Fatalf("loadRoot: %v", err)
	}
	if !r.indexLink.Empty() || !r.pathTrieLink.Empty() || !r.freeListLink.Empty() {
		t.Fatal("freshly initialised root should have all links empty")
	}
	length, err := stream.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if length != HeaderSize {
		t.Fatalf("stream length after init = %d, want %d", length, HeaderSize)
	}
}

func TestLoadRoot_RejectsTooShortStream(t *testing.T) {
	stream := streamio.NewMemoryStream()
	if err := stream.Truncate(10); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	_, err := loadRoot(stream)
	if !errors.Is(err, ErrStreamTooShort) {
		t.Fatalf("loadRoot error = %v, want ErrStreamTooShort", err)
	}
}

func TestLoadRoot_RejectsBadMagic(t *testing.T) {
	stream := streamio.NewMemoryStream()
	if err := stream.Truncate(HeaderSize); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	garbage := make([]byte, 8)
	if _, err := stream.WriteAt(garbage, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	_, err := loadRoot(stream)
	if !errors.Is(err, ErrNotAStreamDB) {
		t.Fatalf("loadRoot error = %v, want ErrNotAStreamDB", err)
	}
}

func TestRoot_WriteThenLoadRoundTrip(t *testing.T) {
	stream := streamio.NewMemoryStream()
	r, err := loadRoot(stream)
	if err != nil {
		t.Fatalf("loadRoot: %v", err)
	}
	r.indexLink.WriteNew(5)
	r.freeListLink.WriteNew(7)
	if err := writeRoot(stream, r); err != nil {
		t.Fatalf("writeRoot: %v", err)
	}

	r2, err := loadRoot(stream)
	if err != nil {
		t.Fatalf("loadRoot (reload): %v", err)
	}
	indexID, ok := r2.indexLink.TryGet(RevisionCurrent)
	if !ok || indexID != 5 {
		t.Fatalf("reloaded indexLink = (%d,%v), want (5,true)", indexID, ok)
	}
	freeID, ok := r2.freeListLink.TryGet(RevisionCurrent)
	if !ok || freeID != 7 {
		t.Fatalf("reloaded freeListLink = (%d,%v), want (7,true)", freeID, ok)
	}
}
