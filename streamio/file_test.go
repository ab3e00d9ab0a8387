package streamio

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestFileStream_WriteFlushReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.WriteAt([]byte("payload"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	buf := make([]byte, len("payload"))
	if _, err := s.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(buf, []byte("payload")) {
		t.Fatalf("ReadAt = %q, want %q", buf, "payload")
	}
}

func TestFileStream_ReopenPreservesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.WriteAt([]byte("durable"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	buf := make([]byte, len("durable"))
	if _, err := s2.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt after reopen: %v", err)
	}
	if !bytes.Equal(buf, []byte("durable")) {
		t.Fatalf("reopened contents = %q, want %q", buf, "durable")
	}
}

func TestFileStream_TruncateGrowsZeroFilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Truncate(100); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	length, err := s.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if length != 100 {
		t.Fatalf("Length = %d, want 100", length)
	}
	buf := make([]byte, 100)
	if _, err := s.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}
