// Package streamio provides BackingStream implementations for
// github.com/streamdb-engine/streamdb/engine: a durable os.File-backed
// stream and an in-memory stream for tests and ephemeral use.
package streamio

import (
	"fmt"
	"os"
)

// FileStream adapts an *os.File to engine.BackingStream.
type FileStream struct {
	f *os.File
}

// Open opens (creating if necessary) path for read/write use as an
// engine backing stream.
func Open(path string) (*FileStream, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &FileStream{f: f}, nil
}

func (s *FileStream) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *FileStream) WriteAt(p []byte, off int64) (int, error) { return s.f.WriteAt(p, off) }

// Flush fsyncs the underlying file.
func (s *FileStream) Flush() error { return s.f.Sync() }

// Length reports the file's current size.
func (s *FileStream) Length() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Truncate grows or shrinks the file to exactly n bytes, zero-filling
// any newly created region as os.File.Truncate guarantees.
func (s *FileStream) Truncate(n int64) error { return s.f.Truncate(n) }

// Close releases the underlying file handle.
func (s *FileStream) Close() error { return s.f.Close() }
