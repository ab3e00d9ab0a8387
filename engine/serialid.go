package engine

import (
	"bytes"

	"github.com/google/uuid"
)

// idSize is the width, in bytes, of a document identifier.
const idSize = 16

// DocID is a 128-bit opaque document identifier. It supports total
// ordering by big-endian byte comparison and reserves two sentinel
// values that must never be assigned to a real document: ZeroID (all
// 0x00) and NeutralID (all 0x7F, used as the implicit root key of an
// index page's binary search tree).
type DocID [idSize]byte

// ZeroID is the all-zero sentinel. An index slot holding ZeroID is empty.
var ZeroID = DocID{}

// NeutralID is the all-0x7F sentinel, the implicit root key of every
// index page's binary search tree.
var NeutralID = func() DocID {
	var id DocID
	for i := range id {
		id[i] = 0x7F
	}
	return id
}()

// IsZero reports whether id is the empty sentinel.
func (id DocID) IsZero() bool { return id == ZeroID }

// IsNeutral reports whether id is the neutral sentinel.
func (id DocID) IsNeutral() bool { return id == NeutralID }

// Compare implements total ordering by big-endian byte comparison:
// negative if id < other, zero if equal, positive if id > other.
func (id DocID) Compare(other DocID) int {
	return bytes.Compare(id[:], other[:])
}

// String renders the id as lowercase hex, for logging and debugging.
func (id DocID) String() string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2*idSize)
	for i, b := range id {
		out[2*i] = hexDigits[b>>4]
		out[2*i+1] = hexDigits[b&0xF]
	}
	return string(out)
}

// NewDocID generates a fresh random document identifier. The underlying
// randomness is sourced the same way the teacher's UUID helpers do
// (crypto/rand via uuid.NewRandom) and reshaped to 16 raw bytes; the
// generator then forces the last byte away from both sentinel values so
// a freshly minted id can never collide with ZeroID or NeutralID.
func NewDocID() (DocID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return DocID{}, err
	}
	var id DocID
	copy(id[:], u[:])
	avoidSentinels(&id)
	return id, nil
}

// avoidSentinels nudges the last byte of id so the whole id cannot equal
// ZeroID or NeutralID. It only needs to act when every other byte is
// already the sentinel's repeated value.
func avoidSentinels(id *DocID) {
	allAre := func(v byte) bool {
		for i := 0; i < idSize-1; i++ {
			if id[i] != v {
				return false
			}
		}
		return true
	}
	last := idSize - 1
	if allAre(0x00) && id[last] == 0x00 {
		id[last] = 0x01
	}
	if allAre(0x7F) && id[last] == 0x7F {
		id[last] = 0x7E
	}
}
