package engine

import (
	"bytes"
	"testing"

	"github.com/streamdb-engine/streamdb/streamio"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(streamio.NewMemoryStream(), EngineOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func TestEngine_RoundTripWriteRead(t *testing.T) {
	e := newTestEngine(t)
	payload := []byte{1, 4, 7, 2, 5, 8, 3, 6, 9}

	end, err := e.WriteStream(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("WriteStream: %v", err)
	}
	if end < 0 {
		t.Fatalf("end id = %d, want >= 0", end)
	}

	reader, err := e.GetStream(end)
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back %v, want %v", got, payload)
	}
}

func TestEngine_PathBindingReplace(t *testing.T) {
	e := newTestEngine(t)
	g1, _ := NewDocID()
	g2, _ := NewDocID()

	prev, err := e.BindPath("p", g1)
	if err != nil {
		t.Fatalf("BindPath(p, g1): %v", err)
	}
	if prev != nil {
		t.Fatalf("first BindPath previous = %v, want nil", prev)
	}

	prev, err = e.BindPath("p", g2)
	if err != nil {
		t.Fatalf("BindPath(p, g2): %v", err)
	}
	if prev == nil || *prev != g1 {
		t.Fatalf("second BindPath previous = %v, want %v", prev, g1)
	}

	got, ok, err := e.GetDocumentIDByPath("p")
	if err != nil {
		t.Fatalf("GetDocumentIDByPath(p): %v", err)
	}
	if !ok || got != g2 {
		t.Fatalf("GetDocumentIDByPath(p) = (%v,%v), want (%v,true)", got, ok, g2)
	}

	_, ok, err = e.GetDocumentIDByPath("q")
	if err != nil {
		t.Fatalf("GetDocumentIDByPath(q): %v", err)
	}
	if ok {
		t.Fatal("GetDocumentIDByPath(q) should be not-found")
	}
}

func TestEngine_PathsForDocument(t *testing.T) {
	e := newTestEngine(t)
	docT, _ := NewDocID()
	docX, _ := NewDocID()
	docY, _ := NewDocID()
	docZ, _ := NewDocID()

	bindings := map[string]DocID{
		"one": docT, "two": docX, "three": docT,
		"four": docT, "five": docY, "six": docZ,
	}
	for path, id := range bindings {
		if _, err := e.BindPath(path, id); err != nil {
			t.Fatalf("BindPath(%q): %v", path, err)
		}
	}

	got, err := e.PathsForDocument(docT)
	if err != nil {
		t.Fatalf("PathsForDocument: %v", err)
	}
	want := map[string]bool{"one": true, "three": true, "four": true}
	if len(got) != len(want) {
		t.Fatalf("PathsForDocument(T) = %v, want keys of %v", got, want)
	}
	for _, p := range got {
		if !want[p] {
			t.Fatalf("unexpected path %q in PathsForDocument(T) result %v", p, got)
		}
	}
}

func TestEngine_PrefixSearch(t *testing.T) {
	e := newTestEngine(t)
	paths := []string{"find me/one", "find me/two", "miss me/three", "find me/four", "miss me/five", "miss me/six"}
	for _, p := range paths {
		id, _ := NewDocID()
		if _, err := e.BindPath(p, id); err != nil {
			t.Fatalf("BindPath(%q): %v", p, err)
		}
	}

	got, err := e.SearchPaths("find me/")
	if err != nil {
		t.Fatalf("SearchPaths: %v", err)
	}
	want := map[string]bool{"find me/one": true, "find me/two": true, "find me/four": true}
	if len(got) != len(want) {
		t.Fatalf("SearchPaths(find me/) = %v, want keys of %v", got, want)
	}
	for _, p := range got {
		if !want[p] {
			t.Fatalf("unexpected path %q in SearchPaths result %v", p, got)
		}
	}
}

func TestEngine_IndexScale(t *testing.T) {
	e := newTestEngine(t)
	d0, _ := NewDocID()

	if _, err := e.BindIndex(d0, 123); err != nil {
		t.Fatalf("BindIndex(d0): %v", err)
	}

	var d999 DocID
	for i := 0; i < 1000; i++ {
		id, _ := NewDocID()
		if i == 999 {
			d999 = id
		}
		if _, err := e.BindIndex(id, int32(i)); err != nil {
			t.Fatalf("BindIndex(%d): %v", i, err)
		}
	}
	if _, err := e.BindIndex(d999, 123); err != nil {
		t.Fatalf("BindIndex(d999, 123): %v", err)
	}

	head0, ok, err := e.GetDocumentHead(d0)
	if err != nil || !ok || head0 != 123 {
		t.Fatalf("GetDocumentHead(d0) = (%d,%v,%v), want (123,true,nil)", head0, ok, err)
	}
	head999, ok, err := e.GetDocumentHead(d999)
	if err != nil || !ok || head999 != 123 {
		t.Fatalf("GetDocumentHead(d999) = (%d,%v,%v), want (123,true,nil)", head999, ok, err)
	}
}

func TestEngine_FreeListReuseCapsGrowth(t *testing.T) {
	e := newTestEngine(t)

	writeAndReleaseN := func(n int) {
		ends := make([]int32, n)
		for i := 0; i < n; i++ {
			end, err := e.WriteStream(bytes.NewReader([]byte{byte(i)}))
			if err != nil {
				t.Fatalf("WriteStream: %v", err)
			}
			ends[i] = end
		}
		for _, end := range ends {
			if err := e.ReleaseChain(end); err != nil {
				t.Fatalf("ReleaseChain: %v", err)
			}
		}
	}

	writeAndReleaseN(300)
	afterFirst, err := e.stream.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}

	writeAndReleaseN(300)
	afterSecond, err := e.stream.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}

	if afterSecond != afterFirst {
		t.Fatalf("stream grew on reuse: %d -> %d", afterFirst, afterSecond)
	}
}

func TestEngine_OneFullPageDocument(t *testing.T) {
	e := newTestEngine(t)
	payload := bytes.Repeat([]byte{0xAB}, PageBodySize)

	end, err := e.WriteStream(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("WriteStream: %v", err)
	}
	p, err := e.store.readPage(end)
	if err != nil {
		t.Fatalf("readPage: %v", err)
	}
	if p.PrevPageID() != ChainStart {
		t.Errorf("PrevPageID = %d, want %d", p.PrevPageID(), ChainStart)
	}
	if p.DataLength() != PageBodySize {
		t.Errorf("DataLength = %d, want %d", p.DataLength(), PageBodySize)
	}
}

func TestEngine_OpenThenReopenRecognisesMagic(t *testing.T) {
	stream := streamio.NewMemoryStream()
	if _, err := Open(stream, EngineOptions{}); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := Open(stream, EngineOptions{}); err != nil {
		t.Fatalf("second Open (reopen): %v", err)
	}
}
