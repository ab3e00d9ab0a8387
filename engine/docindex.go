package engine

// documentIndex implements §4.8: an append-only chain of index pages,
// rooted at the engine root's first versioned link, mapping document ids
// to the end-page-id of their page chain via a versioned link per entry.
type documentIndex struct {
	store *pagedStore
	alloc *allocator
	root  *versionedLink
}

func newDocumentIndex(store *pagedStore, alloc *allocator, root *versionedLink) *documentIndex {
	return &documentIndex{store: store, alloc: alloc, root: root}
}

// chainPageIDs returns every page id in the index chain, head first (most
// recently appended), by walking prev_page_id from the current head.
func (di *documentIndex) chainPageIDs() ([]int32, error) {
	head, ok := di.root.TryGet(RevisionCurrent)
	if !ok {
		return nil, nil
	}
	var ids []int32
	cur := head
	visited := map[int32]bool{}
	for cur != ChainStart {
		if visited[cur] {
			return nil, &ChainCycleError{EndID: head, At: cur}
		}
		visited[cur] = true
		ids = append(ids, cur)
		p, err := di.store.readPage(cur)
		if err != nil {
			return nil, err
		}
		cur = p.PrevPageID()
	}
	return ids, nil
}

// BindDocument implements §4.8 bind_document: binds docID to the chain
// ending at pageID, returning the page id that was displaced by the
// update (or -1 if this is a fresh binding).
func (di *documentIndex) BindDocument(docID DocID, pageID int32) (int32, error) {
	ids, err := di.chainPageIDs()
	if err != nil {
		return -1, err
	}

	// Pass 1: look for an existing entry to update in place.
	for _, id := range ids {
		p, err := di.store.readPage(id)
		if err != nil {
			return -1, err
		}
		ip := wrapIndexPage(p)
		slot, status := ip.findSlot(docID)
		if status == indexFound {
			link := ip.linkAt(slot)
			expired := link.WriteNew(pageID)
			ip.setLinkAt(slot, link)
			if err := di.store.commitPage(p); err != nil {
				return -1, err
			}
			return expired, nil
		}
	}

	// Pass 2: look for a free gap along this key's path in an existing page.
	for _, id := range ids {
		p, err := di.store.readPage(id)
		if err != nil {
			return -1, err
		}
		ip := wrapIndexPage(p)
		slot, status := ip.findSlot(docID)
		if status == indexGap {
			link := newVersionedLink()
			link.WriteNew(pageID)
			ip.setKeyAt(slot, docID)
			ip.setLinkAt(slot, link)
			if err := di.store.commitPage(p); err != nil {
				return -1, err
			}
			return -1, nil
		}
	}

	// Neither found anywhere: allocate a fresh page, insert at whichever
	// slot findSlot resolves on the blank page, chain it onto the current
	// head, and advance the root's index link. The displaced old head is
	// never freed — the index chain is never compacted.
	newIDs, err := di.alloc.allocateBlock(1)
	if err != nil {
		return -1, err
	}
	p := newZeroPage(newIDs[0])
	ip := wrapIndexPage(p)
	slot, _ := ip.findSlot(docID)
	link := newVersionedLink()
	link.WriteNew(pageID)
	ip.setKeyAt(slot, docID)
	ip.setLinkAt(slot, link)

	head, _ := di.root.TryGet(RevisionCurrent)
	p.SetPrevPageID(head)
	if len(ids) == 0 {
		p.SetPrevPageID(ChainStart)
	}
	if err := di.store.commitPage(p); err != nil {
		return -1, err
	}
	di.root.WriteNew(newIDs[0])
	return -1, nil
}

// LookupDocument implements §4.8 lookup_document.
func (di *documentIndex) LookupDocument(docID DocID) (int32, bool, error) {
	ids, err := di.chainPageIDs()
	if err != nil {
		return -1, false, err
	}
	for _, id := range ids {
		p, err := di.store.readPage(id)
		if err != nil {
			return -1, false, err
		}
		ip := wrapIndexPage(p)
		slot, status := ip.findSlot(docID)
		switch status {
		case indexFound:
			link := ip.linkAt(slot)
			pageID, ok := link.TryGet(RevisionCurrent)
			if !ok {
				// Entry was removed (both slots reset) — keep walking
				// older pages in case an earlier binding still applies.
				continue
			}
			return pageID, true, nil
		case indexGap, indexMiss:
			// Either a gap (gap where this id could live but doesn't —
			// an entry may have been inserted on a later page before an
			// earlier tree had room) or entirely off the tree. Either
			// way, keep walking toward older pages.
			continue
		}
	}
	return -1, false, nil
}

// RemoveDocument implements §4.8 remove_document: resets the first
// matching slot's link to invalid (both page ids -1) without shrinking
// the chain.
func (di *documentIndex) RemoveDocument(docID DocID) error {
	ids, err := di.chainPageIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		p, err := di.store.readPage(id)
		if err != nil {
			return err
		}
		ip := wrapIndexPage(p)
		slot, status := ip.findSlot(docID)
		if status == indexFound {
			link := newVersionedLink()
			ip.setLinkAt(slot, link)
			return di.store.commitPage(p)
		}
	}
	return nil
}
