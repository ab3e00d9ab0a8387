package engine

import (
	"bytes"
	"io"
	"sync"
)

// EngineOptions configures an Engine at open time. The zero value is a
// valid, standard configuration.
type EngineOptions struct {
	// QuickMode disables CRC validation on page reads globally. Open
	// applies it through checksum.go's SetQuickMode, which is process-wide:
	// the setting affects every Engine, and each Open overwrites it.
	QuickMode bool
}

// Engine is the top-level façade described in §4.10: it wires the paged
// store, free-list, allocator, document index, and path trie together
// behind a single global stream mutex.
type Engine struct {
	fslock sync.Mutex

	stream BackingStream
	root   *root
	store  *pagedStore
	free   *freeList
	alloc  *allocator
	docidx *documentIndex
}

// Open implements §4.10 new(stream): validates or initialises the
// engine root and wires up every subsystem above it. An empty stream is
// initialised in place; a non-empty stream must carry a valid magic.
func Open(stream BackingStream, opts EngineOptions) (*Engine, error) {
	SetQuickMode(opts.QuickMode)

	r, err := loadRoot(stream)
	if err != nil {
		return nil, err
	}
	store := newPagedStore(stream)
	free := newFreeList(store, r.freeListLink)
	alloc := newAllocator(store, free)
	docidx := newDocumentIndex(store, alloc, r.indexLink)

	return &Engine{
		stream: stream,
		root:   r,
		store:  store,
		free:   free,
		alloc:  alloc,
		docidx: docidx,
	}, nil
}

// persistRoot rewrites the 56-byte header. Called after every mutation
// to one of the root's three versioned links, since WriteNew only
// updates in-memory state.
func (e *Engine) persistRoot() error {
	return writeRoot(e.stream, e.root)
}

// BindIndex implements §4.8 bind_document at the façade level: binds
// doc_id to the page chain ending at pageID, returning the page id
// displaced by the update, or -1 for a fresh binding.
func (e *Engine) BindIndex(docID DocID, pageID int32) (int32, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	expired, err := e.docidx.BindDocument(docID, pageID)
	if err != nil {
		return -1, err
	}
	return expired, e.persistRoot()
}

// UnbindIndex implements §4.8 remove_document at the façade level.
func (e *Engine) UnbindIndex(docID DocID) error {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	if err := e.docidx.RemoveDocument(docID); err != nil {
		return err
	}
	return e.stream.Flush()
}

// GetDocumentHead implements §4.8 lookup_document at the façade level.
func (e *Engine) GetDocumentHead(docID DocID) (int32, bool, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	return e.docidx.LookupDocument(docID)
}

// WriteStream implements §4.7 write_stream: writes reader's contents as
// a brand-new page chain and returns its end page id.
func (e *Engine) WriteStream(reader io.Reader) (int32, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	end, err := writeChain(e.alloc, reader)
	if err != nil {
		return -1, err
	}
	return end, e.stream.Flush()
}

// GetStream implements §4.7 get_stream: returns a read-only view over
// the logical byte stream stored in the chain ending at endPageID.
func (e *Engine) GetStream(endPageID int32) (*ChainReader, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	return newChainReader(e.store, endPageID)
}

// ReleaseChain implements §4.7 release_chain: returns every page in the
// chain ending at endPageID to the free-list.
func (e *Engine) ReleaseChain(endPageID int32) error {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	if err := e.free.ReleaseChain(endPageID); err != nil {
		return err
	}
	return e.persistRoot()
}

// ───────────────────────────────────────────────────────────────────────────
// Path trie operations (§4.9, §4.10)
// ───────────────────────────────────────────────────────────────────────────

// loadTrie reads and deserialises the path trie from its chain, or
// returns a fresh empty trie if the chain has never been written.
func (e *Engine) loadTrie() (*trie, error) {
	endID, ok := e.root.pathTrieLink.TryGet(RevisionCurrent)
	if !ok {
		return newTrie(), nil
	}
	reader, err := newChainReader(e.store, endID)
	if err != nil {
		return nil, err
	}
	buf, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return unmarshalTrie(buf)
}

// storeTrie serialises t as a brand-new chain, advances the root's path
// trie link to it, and releases the chain it displaced.
func (e *Engine) storeTrie(t *trie) error {
	buf := marshalTrie(t)
	newEnd, err := writeChain(e.alloc, bytes.NewReader(buf))
	if err != nil {
		return err
	}

	// WriteNew rotates the link's two-slot rollback window: the value
	// that falls out of it (if any) is no longer reachable via either
	// revision 0 or 1, and its chain can be freed.
	displaced := e.root.pathTrieLink.WriteNew(newEnd)
	if err := e.persistRoot(); err != nil {
		return err
	}
	if displaced != -1 {
		if err := e.free.ReleaseChain(displaced); err != nil {
			return err
		}
		return e.persistRoot()
	}
	return nil
}

// BindPath implements §4.10 bind_path.
func (e *Engine) BindPath(path string, docID DocID) (*DocID, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	t, err := e.loadTrie()
	if err != nil {
		return nil, err
	}
	previous, err := t.Add(path, docID)
	if err != nil {
		return nil, err
	}
	if err := e.storeTrie(t); err != nil {
		return nil, err
	}
	return previous, nil
}

// UnbindPath implements §4.10 unbind_path: a no-op if no trie has ever
// been written.
func (e *Engine) UnbindPath(path string) error {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	if _, ok := e.root.pathTrieLink.TryGet(RevisionCurrent); !ok {
		return nil
	}
	t, err := e.loadTrie()
	if err != nil {
		return err
	}
	t.Delete(path)
	return e.storeTrie(t)
}

// GetDocumentIDByPath implements §4.10 get_document_id_by_path.
func (e *Engine) GetDocumentIDByPath(path string) (DocID, bool, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	t, err := e.loadTrie()
	if err != nil {
		return DocID{}, false, err
	}
	id, ok := t.Get(path)
	return id, ok, nil
}

// SearchPaths implements §4.10 search_paths.
func (e *Engine) SearchPaths(prefix string) ([]string, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	t, err := e.loadTrie()
	if err != nil {
		return nil, err
	}
	return t.Search(prefix), nil
}

// PathsForDocument implements §4.10 paths_for_document.
func (e *Engine) PathsForDocument(docID DocID) ([]string, error) {
	e.fslock.Lock()
	defer e.fslock.Unlock()

	t, err := e.loadTrie()
	if err != nil {
		return nil, err
	}
	return t.PathsFor(docID), nil
}

