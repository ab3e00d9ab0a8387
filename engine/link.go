package engine

import (
	"encoding/binary"
	"sync"
)

// linkEncodedSize is the on-disk width of a versionedLink: two slots, each
// a 1-byte counter plus a 4-byte big-endian page id.
const linkEncodedSize = 2 * (1 + 4)

// linkSlot is one half of a versionedLink.
type linkSlot struct {
	version Counter
	pageID  int32 // -1 = uninitialised
}

func (s linkSlot) initialised() bool { return s.pageID != -1 }

// versionedLink is the universal rollback unit: a pair of (counter, page
// id) slots holding the current and previous targets of a logical
// pointer. Every write touches exactly one slot, so a torn write to one
// slot always leaves the other intact. Concurrent access to a single
// link is serialised by an internal mutex — independent of any stream-
// level lock, since a link may live entirely in memory (inside an index
// page, or embedded in the engine root).
type versionedLink struct {
	mu sync.Mutex
	a  linkSlot
	b  linkSlot
}

// newVersionedLink returns a link with both slots uninitialised.
func newVersionedLink() *versionedLink {
	return &versionedLink{a: linkSlot{pageID: -1}, b: linkSlot{pageID: -1}}
}

// decodeLink parses a versionedLink from its 10-byte on-disk form.
func decodeLink(buf []byte) *versionedLink {
	l := &versionedLink{
		a: linkSlot{version: Counter(buf[0]), pageID: int32(binary.BigEndian.Uint32(buf[1:5]))},
		b: linkSlot{version: Counter(buf[5]), pageID: int32(binary.BigEndian.Uint32(buf[6:10]))},
	}
	return l
}

// encode serialises the link into its 10-byte on-disk form.
func (l *versionedLink) encode(buf []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	buf[0] = byte(l.a.version)
	binary.BigEndian.PutUint32(buf[1:5], uint32(l.a.pageID))
	buf[5] = byte(l.b.version)
	binary.BigEndian.PutUint32(buf[6:10], uint32(l.b.pageID))
}

// revision selects which slot try_get should return.
type revision int

const (
	// RevisionCurrent selects the newer of the two slots.
	RevisionCurrent revision = 0
	// RevisionPrevious selects the older of the two slots.
	RevisionPrevious revision = 1
)

// newestOldest returns pointers to the newer and older slots; the newer is
// whichever initialised slot carries the higher counter, using the
// bounded-drift Compare. Must be called with l.mu held. Returns nil, nil
// if neither slot is initialised.
func (l *versionedLink) newestOldest() (newest, oldest *linkSlot) {
	switch {
	case !l.a.initialised() && !l.b.initialised():
		return nil, nil
	case !l.a.initialised():
		return &l.b, &l.a
	case !l.b.initialised():
		return &l.a, &l.b
	default:
		if l.a.version.Compare(l.b.version) >= 0 {
			return &l.a, &l.b
		}
		return &l.b, &l.a
	}
}

// TryGet returns the page id for the requested revision. ok is false when
// that revision has no value: both slots uninitialised (revision 0 or 1),
// or exactly one slot initialised and revision 1 was asked for.
func (l *versionedLink) TryGet(rev revision) (pageID int32, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	newest, oldest := l.newestOldest()
	if newest == nil {
		return -1, false
	}
	if rev == RevisionCurrent {
		return newest.pageID, true
	}
	if oldest == nil || !oldest.initialised() {
		return -1, false
	}
	return oldest.pageID, true
}

// WriteNew stores pageID as the new current value and returns the page id
// that was displaced (-1 if none was displaced, i.e. a slot was still
// uninitialised). Rules, in order:
//  1. if A uninitialised -> write A with counter 0
//  2. else if B uninitialised -> write B with counter = A.counter.Next()
//  3. else overwrite the older slot with (newest.counter.Next(), pageID)
//
// After any write the two counters must differ unless one slot is still
// uninitialised. The write rules never produce equal counters, so finding
// both slots initialised with equal counters (e.g. a corrupt link decoded
// from disk) is a programmer error: WriteNew panics with an
// *InvariantError.
func (l *versionedLink) WriteNew(pageID int32) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case !l.a.initialised():
		l.a = linkSlot{version: newCounter(0), pageID: pageID}
		return -1
	case !l.b.initialised():
		l.b = linkSlot{version: l.a.version.Next(), pageID: pageID}
		return -1
	default:
		if l.a.version == l.b.version {
			panic(invariantf("versioned link has two initialised slots with equal counter %d", l.a.version))
		}
		newest, oldest := l.newestOldest()
		displaced := oldest.pageID
		*oldest = linkSlot{version: newest.version.Next(), pageID: pageID}
		return displaced
	}
}

// Reset clears both slots back to uninitialised, used by document
// removal (§4.8 remove_document): the slot's link becomes invalid
// without shrinking the chain.
func (l *versionedLink) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a = linkSlot{pageID: -1}
	l.b = linkSlot{pageID: -1}
}

// Empty reports whether both slots are uninitialised.
func (l *versionedLink) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.a.initialised() && !l.b.initialised()
}
