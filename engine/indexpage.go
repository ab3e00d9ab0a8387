package engine

// entriesPerIndexPage is the number of (doc id, link) slots packed into
// one index page's body, laid out as an implicit binary search tree of
// depth 7 whose unstored root key is NeutralID: entry 0/1 are its left
// and right children, and for entry k the children sit at 2k+2 and 2k+3.
//
//	2 + 4 + 8 + 16 + 32 + 64 = 126
const entriesPerIndexPage = 126

// indexEntrySize is the on-disk width of one (doc id, versioned link) slot.
const indexEntrySize = idSize + linkEncodedSize // 16 + 10 = 26

// indexPage is a thin view over a page's body as an array of index entries.
type indexPage struct {
	body []byte
}

func wrapIndexPage(p *Page) indexPage { return indexPage{body: p.Body()} }

func (ip indexPage) keyAt(slot int) DocID {
	var id DocID
	off := slot * indexEntrySize
	copy(id[:], ip.body[off:off+idSize])
	return id
}

func (ip indexPage) setKeyAt(slot int, id DocID) {
	off := slot * indexEntrySize
	copy(ip.body[off:off+idSize], id[:])
}

func (ip indexPage) linkAt(slot int) *versionedLink {
	off := slot*indexEntrySize + idSize
	return decodeLink(ip.body[off : off+linkEncodedSize])
}

func (ip indexPage) setLinkAt(slot int, link *versionedLink) {
	off := slot*indexEntrySize + idSize
	link.encode(ip.body[off : off+linkEncodedSize])
}

// indexFindStatus classifies the outcome of findSlot.
type indexFindStatus int

const (
	// indexFound means the key is present at the returned slot.
	indexFound indexFindStatus = iota
	// indexGap means the returned slot is empty (ZeroID) and may host the
	// key if it needs to be inserted into this page.
	indexGap
	// indexMiss means the key is not reachable in this page: neither a
	// matching entry nor a gap exists along its implicit-tree path.
	indexMiss
)

// findSlot implements §4.8's per-page tree find(key): up to 7 iterations
// of the implicit binary search, as described in the spec verbatim.
func (ip indexPage) findSlot(key DocID) (slot int, status indexFindStatus) {
	cmp := NeutralID
	left, right := 0, 1
	current := -1

	for iter := 0; iter < 7; iter++ {
		if cmp == key {
			return current, indexFound
		}
		if cmp.Compare(key) < 0 {
			current = left
		} else {
			current = right
		}
		newLeft, newRight := 2*current+2, 2*current+3
		if current >= entriesPerIndexPage {
			return -1, indexMiss
		}
		entryKey := ip.keyAt(current)
		if entryKey.IsZero() {
			return current, indexGap
		}
		cmp = entryKey
		left, right = newLeft, newRight
	}
	// Unreachable: current >= 126 is guaranteed by the seventh iteration
	// (see the level arithmetic at entriesPerIndexPage), so the loop always
	// returns before falling out the bottom. Hitting this is a bug in
	// the engine, not bad input.
	panic(invariantf("index page find() exceeded 7 iterations for key %s", key))
}
