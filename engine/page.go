package engine

import (
	"encoding/binary"
	"fmt"
)

const (
	// PageSize is the fixed on-disk size of every page, header included.
	PageSize = 4096

	// PageHeaderSize is the size of a page's fixed header:
	// [0:4] CRC (u32 BE) | [4:8] data_length (i32 BE) | [8:12] prev_page_id (i32 BE)
	PageHeaderSize = 12

	// PageBodySize is the usable payload capacity of a single page.
	PageBodySize = PageSize - PageHeaderSize // 4084

	// ChainStart marks a page's prev_page_id when it begins a chain.
	ChainStart int32 = -1
)

// Special page ids 0, 1 and 2 are reserved: growBlock never hands them
// out and the free-list never accepts them. The header occupies its own
// region ahead of page 0 in the backing stream, so these are ordinary
// page slots, merely pre-reserved; no subsystem stores data in them.
const (
	numSpecialPages = 3
)

// isSpecialPage reports whether id is one of the reserved low page ids.
func isSpecialPage(id int32) bool {
	return id >= 0 && id < numSpecialPages
}

// Page is the in-memory form of one fixed 4096-byte block: a 12-byte
// header plus a 4084-byte body. A page read from storage satisfies
// crc == CRC32(image with crc zeroed) and 0 <= dataLength <= PageBodySize.
type Page struct {
	id         int32 // not persisted; set by whoever read/allocated the page
	dataLength int32
	prevPageID int32
	body       [PageBodySize]byte
}

// newZeroPage returns a freshly zeroed page for the given id: empty body,
// dataLength 0, prevPageID ChainStart. This is the shape a newly allocated
// slot must have before or as it is first committed.
func newZeroPage(id int32) *Page {
	return &Page{id: id, prevPageID: ChainStart}
}

// ID returns the page's id (not part of the on-disk image; assigned on
// read/allocate based on the page's offset in the stream).
func (p *Page) ID() int32 { return p.id }

// DataLength returns the number of meaningful bytes at the start of Body().
func (p *Page) DataLength() int32 { return p.dataLength }

// PrevPageID returns the id of the previous page in this page's chain, or
// ChainStart if this page begins the chain.
func (p *Page) PrevPageID() int32 { return p.prevPageID }

// SetPrevPageID sets the reverse-chain link.
func (p *Page) SetPrevPageID(id int32) { p.prevPageID = id }

// Body returns the full 4084-byte body buffer (read/write view).
func (p *Page) Body() []byte { return p.body[:] }

// SetData copies data into the page body and sets dataLength, failing if
// data does not fit in one page.
func (p *Page) SetData(data []byte) error {
	if len(data) > PageBodySize {
		return fmt.Errorf("%w: %d bytes exceeds one page's %d-byte capacity", ErrInvalidArgument, len(data), PageBodySize)
	}
	n := copy(p.body[:], data)
	for i := n; i < PageBodySize; i++ {
		p.body[i] = 0
	}
	p.dataLength = int32(n)
	return nil
}

// Data returns the page's meaningful data, i.e. Body()[:DataLength()].
func (p *Page) Data() []byte {
	return p.body[:p.dataLength]
}

// marshal writes the page's on-disk image (CRC included) into buf, which
// must be exactly PageSize bytes.
func (p *Page) marshal(buf []byte) {
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.dataLength))
	binary.BigEndian.PutUint32(buf[8:12], uint32(p.prevPageID))
	copy(buf[PageHeaderSize:], p.body[:])
	crc := computeChecksum(buf)
	binary.BigEndian.PutUint32(buf[0:4], crc)
}

// unmarshalPage parses a page image (exactly PageSize bytes) into a Page
// with the given id. If quick mode is off, the stored CRC is verified
// against a recomputed checksum and a *CRCError is returned on mismatch;
// the 0 <= dataLength <= PageBodySize invariant is always checked.
func unmarshalPage(id int32, buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("%w: page image is %d bytes, want %d", ErrInvalidArgument, len(buf), PageSize)
	}
	stored := binary.BigEndian.Uint32(buf[0:4])
	if !QuickMode() {
		computed := computeChecksum(buf)
		if stored != computed {
			return nil, &CRCError{PageID: id, Stored: stored, Computed: computed}
		}
	}
	dataLength := int32(binary.BigEndian.Uint32(buf[4:8]))
	if dataLength < 0 || dataLength > PageBodySize {
		return nil, invariantf("page %d has out-of-range data_length %d", id, dataLength)
	}
	p := &Page{
		id:         id,
		dataLength: dataLength,
		prevPageID: int32(binary.BigEndian.Uint32(buf[8:12])),
	}
	copy(p.body[:], buf[PageHeaderSize:])
	return p, nil
}
