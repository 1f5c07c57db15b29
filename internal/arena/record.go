package arena

import (
	"encoding/binary"
	"fmt"
)

// Record is a view of one record: a header of link and data counts followed
// by link slots (packed Refs) and data slots (opaque uint64 payloads).
type Record struct {
	b []byte
}

// LinkCount returns the number of link slots.
func (r Record) LinkCount() int {
	return int(binary.LittleEndian.Uint32(r.b[0:4]))
}

// DataCount returns the number of data slots.
func (r Record) DataCount() int {
	return int(binary.LittleEndian.Uint32(r.b[4:8]))
}

// Link returns link slot i.
func (r Record) Link(i int) Ref {
	return Unpack(binary.LittleEndian.Uint64(r.slot(i, r.LinkCount(), 0)))
}

// SetLink stores ref in link slot i.
func (r Record) SetLink(i int, ref Ref) {
	binary.LittleEndian.PutUint64(r.slot(i, r.LinkCount(), 0), ref.Pack())
}

// Data returns data slot i.
func (r Record) Data(i int) uint64 {
	return binary.LittleEndian.Uint64(r.slot(i, r.DataCount(), r.LinkCount()))
}

// SetData stores v in data slot i.
func (r Record) SetData(i int, v uint64) {
	binary.LittleEndian.PutUint64(r.slot(i, r.DataCount(), r.LinkCount()), v)
}

func (r Record) slot(i, n, base int) []byte {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("arena: slot index %d out of range [0,%d)", i, n))
	}
	off := HeaderSize + SlotSize*(base+i)
	return r.b[off : off+SlotSize]
}
