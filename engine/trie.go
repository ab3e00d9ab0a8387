package engine

import "fmt"

// trieNode is one node of the in-memory path trie. Node 0 is the
// implicit root (value/parent unused, never serialised).
type trieNode struct {
	value    rune
	parent   int
	children map[rune]int
	data     *DocID
}

func newTrieNode(value rune, parent int) *trieNode {
	return &trieNode{value: value, parent: parent, children: map[rune]int{}}
}

// trie is a reverse-parent-linked trie of 21-bit code-point nodes,
// mapping string paths to DocIDs. Persistence is by full re-serialisation
// (see marshalTrie/unmarshalTrie) — the on-disk chain is never mutated in
// place.
type trie struct {
	nodes []*trieNode
}

func newTrie() *trie {
	return &trie{nodes: []*trieNode{newTrieNode(0, 0)}}
}

// walkOrCreate returns the index of the node at the end of path, creating
// intermediate nodes as needed.
func (t *trie) walkOrCreate(path string) int {
	cur := 0
	for _, r := range path {
		child, ok := t.nodes[cur].children[r]
		if !ok {
			child = len(t.nodes)
			t.nodes = append(t.nodes, newTrieNode(r, cur))
			t.nodes[cur].children[r] = child
		}
		cur = child
	}
	return cur
}

// walk returns the index of the node at the end of path, or -1 if no
// such node exists (path was never added).
func (t *trie) walk(path string) int {
	cur := 0
	for _, r := range path {
		child, ok := t.nodes[cur].children[r]
		if !ok {
			return -1
		}
		cur = child
	}
	return cur
}

// Add implements §4.9 add: walks from root following child-by-character,
// materialises missing nodes, and sets data at the terminal node.
// Duplicate paths keep the last write; the previous data is returned.
func (t *trie) Add(path string, value DocID) (*DocID, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	idx := t.walkOrCreate(path)
	old := t.nodes[idx].data
	v := value
	t.nodes[idx].data = &v
	return old, nil
}

// Get implements §4.9 get.
func (t *trie) Get(path string) (DocID, bool) {
	idx := t.walk(path)
	if idx < 0 || t.nodes[idx].data == nil {
		return DocID{}, false
	}
	return *t.nodes[idx].data, true
}

// Delete implements §4.9 delete: clears data at the terminal node if
// present; structural nodes are never pruned.
func (t *trie) Delete(path string) {
	idx := t.walk(path)
	if idx < 0 {
		return
	}
	t.nodes[idx].data = nil
}

// pathTo reconstructs the string path leading to node idx by tracing
// parent pointers back to the root and reversing.
func (t *trie) pathTo(idx int) string {
	var runes []rune
	for idx != 0 {
		n := t.nodes[idx]
		runes = append(runes, n.value)
		idx = n.parent
	}
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Search implements §4.9 search: walks to the node whose label sequence
// matches prefix, then collects every descendant with data set,
// reconstructing each match's full path.
func (t *trie) Search(prefix string) []string {
	start := t.walk(prefix)
	if start < 0 {
		return nil
	}
	// trieNode.children gives only direct children; visit recurses to
	// reach all nodes under start (any depth).
	var out []string
	var visit func(idx int)
	visit = func(idx int) {
		if t.nodes[idx].data != nil {
			out = append(out, t.pathTo(idx))
		}
		for _, child := range t.nodes[idx].children {
			visit(child)
		}
	}
	visit(start)
	return out
}

// PathsFor implements §4.9 paths_for: reconstructs every path whose
// terminal node holds value.
func (t *trie) PathsFor(value DocID) []string {
	var out []string
	for idx, n := range t.nodes {
		if idx == 0 || n.data == nil {
			continue
		}
		if *n.data == value {
			out = append(out, t.pathTo(idx))
		}
	}
	return out
}

// ───────────────────────────────────────────────────────────────────────────
// Serialisation (§4.9)
// ───────────────────────────────────────────────────────────────────────────

// marshalTrie serialises t into its on-disk form: a leading varint
// carrying node_count+1, then for each non-root node in storage order
// three varints (parent_index, code_point, data_length) followed by
// data_length raw bytes (after flushing the bit stream to a byte
// boundary) when data is present, and finally a zero/zero/zero marker.
func marshalTrie(t *trie) []byte {
	w := &bitWriter{}
	encodeVarint(w, uint32(len(t.nodes)))

	for i := 1; i < len(t.nodes); i++ {
		n := t.nodes[i]
		dataLen := uint32(0)
		if n.data != nil {
			dataLen = idSize
		}
		encodeVarint(w, uint32(n.parent))
		encodeVarint(w, uint32(n.value))
		encodeVarint(w, dataLen)
		if dataLen > 0 {
			w.flush()
			w.buf = append(w.buf, n.data[:]...)
		}
	}
	encodeVarint(w, 0)
	encodeVarint(w, 0)
	encodeVarint(w, 0)
	w.flush()
	return w.buf
}

// unmarshalTrie is the inverse of marshalTrie. It validates the
// topological invariant (parent index strictly less than the node's own
// index) as it reconstructs nodes.
func unmarshalTrie(buf []byte) (*trie, error) {
	r := newBitReader(buf)
	count, err := decodeVarint(r)
	if err != nil {
		return nil, fmt.Errorf("trie header: %w", err)
	}

	t := &trie{nodes: make([]*trieNode, 1, count)}
	t.nodes[0] = newTrieNode(0, 0)

	for {
		parent, err := decodeVarint(r)
		if err != nil {
			return nil, fmt.Errorf("trie node parent: %w", err)
		}
		value, err := decodeVarint(r)
		if err != nil {
			return nil, fmt.Errorf("trie node value: %w", err)
		}
		dataLen, err := decodeVarint(r)
		if err != nil {
			return nil, fmt.Errorf("trie node data length: %w", err)
		}
		if parent == 0 && value == 0 && dataLen == 0 {
			break
		}

		idx := len(t.nodes)
		if int(parent) >= idx {
			return nil, invariantf("trie node %d has non-topological parent %d", idx, parent)
		}
		node := newTrieNode(rune(value), int(parent))
		if dataLen > 0 {
			off := r.alignToByte()
			end := off + int(dataLen)
			if end > len(buf) {
				return nil, fmt.Errorf("%w: trie data payload truncated", ErrInvalidArgument)
			}
			var id DocID
			copy(id[:], buf[off:end])
			node.data = &id
			r.pos = end
			r.nBit = 0
		}
		t.nodes[parent].children[rune(value)] = idx
		t.nodes = append(t.nodes, node)
	}
	return t, nil
}
