package engine

import (
	"fmt"
	"io"
)

// loadChainPages walks backward from endID via prev_page_id, validating
// each page's CRC as it's read, then reverses the result so index 0 is
// the chain's first (start) page. A cycle (a page id revisited during
// the walk) is reported as a *ChainCycleError.
func loadChainPages(store *pagedStore, endID int32) ([]*Page, error) {
	if endID == ChainStart {
		return nil, nil
	}
	var reversed []*Page
	visited := map[int32]bool{}
	cur := endID
	for cur != ChainStart {
		if visited[cur] {
			return nil, &ChainCycleError{EndID: endID, At: cur}
		}
		visited[cur] = true
		p, err := store.readPage(cur)
		if err != nil {
			return nil, err
		}
		reversed = append(reversed, p)
		cur = p.PrevPageID()
	}
	pages := make([]*Page, len(reversed))
	for i, p := range reversed {
		pages[len(reversed)-1-i] = p
	}
	return pages, nil
}

// ChainReader is a read-only, seekable view over the logical byte stream
// stored in a page chain: the concatenation, in forward order, of each
// page's Data() (the first data_length bytes of its body).
type ChainReader struct {
	pages []*Page
	total int64
	pos   int64
}

// newChainReader materialises a page chain ending at endID into a
// ChainReader. Returns a zero-length reader for an empty chain (endID ==
// ChainStart).
func newChainReader(store *pagedStore, endID int32) (*ChainReader, error) {
	pages, err := loadChainPages(store, endID)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, p := range pages {
		total += int64(p.DataLength())
	}
	return &ChainReader{pages: pages, total: total}, nil
}

// Len returns the chain's total logical byte length.
func (r *ChainReader) Len() int64 { return r.total }

// Read implements io.Reader.
func (r *ChainReader) Read(p []byte) (int, error) {
	if r.pos >= r.total {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && r.pos < r.total {
		pageIdx := int(r.pos / PageBodySize)
		offInPage := int(r.pos % PageBodySize)
		page := r.pages[pageIdx]
		avail := int(page.DataLength()) - offInPage
		if avail <= 0 {
			r.pos += int64(avail)
			continue
		}
		toCopy := len(p) - n
		if toCopy > avail {
			toCopy = avail
		}
		copy(p[n:], page.Data()[offInPage:offInPage+toCopy])
		n += toCopy
		r.pos += int64(toCopy)
	}
	return n, nil
}

// ReadAll drains the reader to completion.
func (r *ChainReader) ReadAll() ([]byte, error) {
	out := make([]byte, 0, r.total-r.pos)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
	}
}

// Seek implements io.Seeker (begin/current/end).
func (r *ChainReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.total + offset
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", ErrInvalidArgument, whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("%w: negative seek position %d", ErrInvalidArgument, abs)
	}
	r.pos = abs
	return r.pos, nil
}

// writeChain implements §4.7 write_stream: reads reader to completion,
// allocates a block of ceil(len/PageBodySize) pages, fills them in
// order, links them via prev_page_id, commits each, and returns the
// chain's end (last) page id. An empty input still produces a
// single-page, zero-length chain so its end id is a valid chain name.
func writeChain(alloc *allocator, reader io.Reader) (int32, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, fmt.Errorf("read stream contents: %w", err)
	}

	n := (len(data) + PageBodySize - 1) / PageBodySize
	if n == 0 {
		n = 1
	}

	ids, err := alloc.allocateBlock(n)
	if err != nil {
		return 0, err
	}

	prev := ChainStart
	for i := 0; i < n; i++ {
		start := i * PageBodySize
		end := start + PageBodySize
		if end > len(data) {
			end = len(data)
		}
		p := newZeroPage(ids[i])
		if err := p.SetData(data[start:end]); err != nil {
			return 0, err
		}
		p.SetPrevPageID(prev)
		if err := alloc.store.commitPage(p); err != nil {
			return 0, err
		}
		prev = ids[i]
	}
	return ids[n-1], nil
}
