package engine

import "fmt"

// HeaderSize is the fixed size, in bytes, of the engine root occupying
// the start of the backing stream (see root.go). Page id 0 begins
// immediately after it: offset(id) = HeaderSize + id*PageSize.
const HeaderSize = 56

// pagedStore maps page ids to byte offsets in a BackingStream and
// performs CRC-guarded page I/O. It has no notion of free-list reuse;
// that is layered on top by freeList and orchestrated by allocator.allocateBlock.
type pagedStore struct {
	stream BackingStream
}

func newPagedStore(stream BackingStream) *pagedStore {
	return &pagedStore{stream: stream}
}

func offsetOf(id int32) int64 {
	return HeaderSize + int64(id)*PageSize
}

// readPage seeks to the page's offset, reads PageSize bytes, and
// validates its CRC (unless quick mode is enabled). A CRC failure is a
// non-recoverable read error for that page alone.
func (s *pagedStore) readPage(id int32) (*Page, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: negative page id %d", ErrInvalidArgument, id)
	}
	buf := make([]byte, PageSize)
	if _, err := s.stream.ReadAt(buf, offsetOf(id)); err != nil {
		return nil, fmt.Errorf("read page %d: %w", id, err)
	}
	return unmarshalPage(id, buf)
}

// commitPage recomputes the page's CRC, writes its image at the
// computed offset, and flushes the stream. A zero-initialised page may
// be committed to materialise a newly allocated slot.
func (s *pagedStore) commitPage(p *Page) error {
	buf := make([]byte, PageSize)
	p.marshal(buf)
	if _, err := s.stream.WriteAt(buf, offsetOf(p.id)); err != nil {
		return fmt.Errorf("commit page %d: %w", p.id, err)
	}
	return s.stream.Flush()
}

// pageCount returns how many page slots currently exist in the stream,
// based on its length relative to HeaderSize.
func (s *pagedStore) pageCount() (int32, error) {
	n, err := s.stream.Length()
	if err != nil {
		return 0, err
	}
	if n < HeaderSize {
		return 0, nil
	}
	return int32((n - HeaderSize) / PageSize), nil
}

// growBlock extends the backing stream by n fresh page slots and returns
// their ids. The new region is zero-filled by BackingStream.Truncate,
// which already satisfies the "zero body, dataLength 0, prevPageID -1"
// shape for data_length and body, but prevPageID must still be written
// explicitly as -1 (zero-fill alone would read as 0, not -1) the first
// time each such page is committed; growBlock does not commit pages
// itself, it only reserves the ids and the on-disk space. The special ids
// (0, 1, 2) are never handed out: on a stream with fewer than
// numSpecialPages slots, their slots are left in place unused and the
// returned ids start at numSpecialPages.
func (s *pagedStore) growBlock(n int) ([]int32, error) {
	if n <= 0 {
		return nil, nil
	}
	count, err := s.pageCount()
	if err != nil {
		return nil, err
	}
	if count < numSpecialPages {
		count = numSpecialPages
	}
	newLen := offsetOf(count + int32(n))
	if err := s.stream.Truncate(newLen); err != nil {
		return nil, fmt.Errorf("grow stream by %d pages: %w", n, err)
	}
	ids := make([]int32, n)
	for i := 0; i < n; i++ {
		ids[i] = count + int32(i)
	}
	return ids, nil
}
