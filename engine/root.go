package engine

import "fmt"

// magic identifies a valid StreamDB stream: 55 AA FE ED FA CE DA 7A.
var magic = [8]byte{0x55, 0xAA, 0xFE, 0xED, 0xFA, 0xCE, 0xDA, 0x7A}

// root is the fixed header occupying the first HeaderSize bytes of the
// backing stream: the magic number followed by three versioned links
// naming the index chain, the path trie chain, and the free-list chain.
type root struct {
	indexLink    *versionedLink
	pathTrieLink *versionedLink
	freeListLink *versionedLink
}

func newEmptyRoot() *root {
	return &root{
		indexLink:    newVersionedLink(),
		pathTrieLink: newVersionedLink(),
		freeListLink: newVersionedLink(),
	}
}

// loadRoot reads and validates the engine root from stream, or initialises a
// fresh one if the stream is empty. See spec §4.10 `new(stream)`.
func loadRoot(stream BackingStream) (*root, error) {
	length, err := stream.Length()
	if err != nil {
		return nil, err
	}

	if length == 0 {
		r := newEmptyRoot()
		if err := writeRoot(stream, r); err != nil {
			return nil, err
		}
		return r, nil
	}

	if length < HeaderSize {
		return nil, fmt.Errorf("%w: stream is %d bytes, need at least %d", ErrStreamTooShort, length, HeaderSize)
	}

	buf := make([]byte, HeaderSize)
	if _, err := stream.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read engine root: %w", err)
	}
	for i, b := range magic {
		if buf[i] != b {
			return nil, ErrNotAStreamDB
		}
	}
	return &root{
		indexLink:    decodeLink(buf[8:18]),
		pathTrieLink: decodeLink(buf[18:28]),
		freeListLink: decodeLink(buf[28:38]),
	}, nil
}

// writeRoot serialises r to the start of stream and flushes.
func writeRoot(stream BackingStream, r *root) error {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], magic[:])
	r.indexLink.encode(buf[8:18])
	r.pathTrieLink.encode(buf[18:28])
	r.freeListLink.encode(buf[28:38])
	if _, err := stream.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write engine root: %w", err)
	}
	return stream.Flush()
}
