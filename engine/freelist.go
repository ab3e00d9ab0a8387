package engine

import (
	"encoding/binary"
	"fmt"
)

// maxFreeListEntries is MAX_INT32_INDEX from the spec: the number of
// released page ids that fit in one free-list page's body, which stores
// a leading i32 count followed by that many i32 entries.
const maxFreeListEntries = (PageBodySize - 4) / 4

// freeListBody is a thin view over a page's body as a free-list record:
// [0:4] count (i32 BE), [4:4+4*count] page ids (i32 BE each).
type freeListBody struct {
	body []byte
}

func wrapFreeListBody(p *Page) freeListBody { return freeListBody{body: p.Body()} }

func (f freeListBody) count() int {
	return int(binary.BigEndian.Uint32(f.body[0:4]))
}

func (f freeListBody) setCount(n int) {
	binary.BigEndian.PutUint32(f.body[0:4], uint32(n))
}

func (f freeListBody) entry(i int) int32 {
	off := 4 + i*4
	return int32(binary.BigEndian.Uint32(f.body[off : off+4]))
}

func (f freeListBody) setEntry(i int, id int32) {
	off := 4 + i*4
	binary.BigEndian.PutUint32(f.body[off:off+4], uint32(id))
}

// freeList implements the on-disk free-page reuse subsystem (spec §4.5):
// an on-disk stack of released page ids chained through reverse page
// links, rooted at the engine root's third versioned link.
type freeList struct {
	store *pagedStore
	root  *versionedLink
}

func newFreeList(store *pagedStore, root *versionedLink) *freeList {
	return &freeList{store: store, root: root}
}

// readFreeListPage reads page id and returns it alongside its free-list
// body view. The page must already be formatted as a free-list page
// (count + entries); callers that just allocated a page must zero its
// count themselves first via initFreeListPage.
func (fl *freeList) readFreeListPage(id int32) (*Page, freeListBody, error) {
	p, err := fl.store.readPage(id)
	if err != nil {
		return nil, freeListBody{}, err
	}
	return p, wrapFreeListBody(p), nil
}

// initFreeListPage formats an in-memory page as an empty free-list page.
func initFreeListPage(p *Page) freeListBody {
	for i := range p.body {
		p.body[i] = 0
	}
	fb := wrapFreeListBody(p)
	fb.setCount(0)
	return fb
}

// ReleaseSingle implements §4.5 release_single. Releasing one of the
// reserved special ids (0, 1, 2) is a no-op — the free-list must never
// hand those back out. Double-freeing an id is not guarded against; the
// caller is responsible for not releasing the same id twice.
func (fl *freeList) ReleaseSingle(pageID int32) error {
	if isSpecialPage(pageID) {
		return nil
	}

	head, ok := fl.root.TryGet(RevisionCurrent)
	if !ok {
		newHead, err := fl.bootstrap()
		if err != nil {
			return err
		}
		head = newHead
	}

	visited := map[int32]bool{}
	cur := head
	for {
		if visited[cur] {
			return &ChainCycleError{EndID: head, At: cur}
		}
		visited[cur] = true

		page, fb, err := fl.readFreeListPage(cur)
		if err != nil {
			return err
		}
		if n := fb.count(); n < maxFreeListEntries {
			fb.setEntry(n, pageID)
			fb.setCount(n + 1)
			return fl.store.commitPage(page)
		}
		if page.PrevPageID() == ChainStart {
			// Every page in the chain, including the start, is full.
			// The released page becomes the new start, extending the
			// chain backwards; it is wiped and carries zero entries.
			return fl.extendBackwards(pageID, page)
		}
		cur = page.PrevPageID()
	}
}

// bootstrap allocates a fresh free-list page directly (bypassing reuse,
// since there is nothing to reuse yet), registers it as the chain head,
// and returns its id.
func (fl *freeList) bootstrap() (int32, error) {
	ids, err := fl.store.growBlock(1)
	if err != nil {
		return 0, fmt.Errorf("bootstrap free-list: %w", err)
	}
	p := newZeroPage(ids[0])
	initFreeListPage(p)
	if err := fl.store.commitPage(p); err != nil {
		return 0, err
	}
	fl.root.WriteNew(ids[0])
	return ids[0], nil
}

// extendBackwards turns pageID into a brand-new, empty free-list page
// that becomes the chain's new oldest page; the former oldest page
// (oldStart) is re-pointed to it.
func (fl *freeList) extendBackwards(pageID int32, oldStart *Page) error {
	newPage := newZeroPage(pageID)
	initFreeListPage(newPage)
	newPage.SetPrevPageID(ChainStart)
	if err := fl.store.commitPage(newPage); err != nil {
		return err
	}
	oldStart.SetPrevPageID(pageID)
	return fl.store.commitPage(oldStart)
}

// ReleaseChain implements §4.5 release_chain: walk the chain ending at
// endID via prev_page_id, releasing every visited page. A revisited page
// id indicates a cycle, which is a fatal (corruption) error.
func (fl *freeList) ReleaseChain(endID int32) error {
	if endID < 0 {
		return nil
	}
	visited := map[int32]bool{}
	cur := endID
	for cur != ChainStart {
		if visited[cur] {
			return &ChainCycleError{EndID: endID, At: cur}
		}
		visited[cur] = true

		page, err := fl.store.readPage(cur)
		if err != nil {
			return err
		}
		next := page.PrevPageID()
		if err := fl.ReleaseSingle(cur); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// Reassign implements §4.5 reassign_released: walks the free-list chain
// to its oldest end and fills as many slots of block as it can from
// reused pages, returning the count filled. The caller extends the
// backing stream for any remaining slots.
func (fl *freeList) Reassign(block []int32) (int, error) {
	head, ok := fl.root.TryGet(RevisionCurrent)
	if !ok {
		return 0, nil
	}

	// Walk from head to the oldest end, recording the chain in
	// head-to-tail order so ids[0] == head and ids[len-1] == oldest.
	var ids []int32
	cur := head
	visited := map[int32]bool{}
	for {
		if visited[cur] {
			return 0, &ChainCycleError{EndID: head, At: cur}
		}
		visited[cur] = true
		ids = append(ids, cur)
		page, err := fl.store.readPage(cur)
		if err != nil {
			return 0, err
		}
		if page.PrevPageID() == ChainStart {
			break
		}
		cur = page.PrevPageID()
	}

	filled := 0
	idx := len(ids) - 1 // pointing at the oldest page
	for filled < len(block) {
		curID := ids[idx]
		page, fb, err := fl.readFreeListPage(curID)
		if err != nil {
			return filled, err
		}
		n := fb.count()
		if n == 0 {
			if idx == 0 {
				break // this empty page is the head — nothing left to give
			}
			block[filled] = curID
			filled++

			successorID := ids[idx-1]
			succPage, err := fl.store.readPage(successorID)
			if err != nil {
				return filled, err
			}
			succPage.SetPrevPageID(ChainStart)
			if err := fl.store.commitPage(succPage); err != nil {
				return filled, err
			}
			idx--
			continue
		}
		block[filled] = fb.entry(n - 1)
		fb.setCount(n - 1)
		if err := fl.store.commitPage(page); err != nil {
			return filled, err
		}
		filled++
	}
	return filled, nil
}
