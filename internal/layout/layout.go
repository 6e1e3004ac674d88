// Package layout reads fields out of host record memory.
//
// The exporter assumes, and cannot verify, where fields live inside a host
// record. That assumption is captured as a versioned Contract and every raw
// read in the program goes through this package so it can be audited in one
// place. A Contract that no longer matches the host produces garbage values,
// not errors; only a record too short to hold the field is detected.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"
)

// ErrShortRecord is returned when record memory ends before the field does.
var ErrShortRecord = errors.New("record memory shorter than layout contract")

// stageWidth is the byte width of the quest stage counter.
const stageWidth = 2

// Contract describes where fields sit inside a host record.
type Contract struct {
	Version     string // identifies the host build the offsets were taken from
	StageOffset int    // byte offset of the little-endian uint16 stage counter
}

// DefaultContract returns the layout of the supported host runtime.
func DefaultContract() Contract {
	return Contract{
		Version:     "obse64-1",
		StageOffset: 0xB8,
	}
}

// Size returns the minimum record size the contract needs.
func (c Contract) Size() int {
	return c.StageOffset + stageWidth
}

// String is used in log lines.
func (c Contract) String() string {
	return fmt.Sprintf("%s(stage@0x%X)", c.Version, c.StageOffset)
}

// Memory is anything exposing a raw record view. host.Record satisfies it.
type Memory interface {
	Memory() []byte
}

// Accessor reads the stage counter of a record.
type Accessor interface {
	Stage(rec Memory) (uint16, error)
}

// FixedOffset reads fields at the offsets of its Contract.
type FixedOffset struct {
	contract Contract
}

// NewFixedOffset creates an accessor for the given contract.
func NewFixedOffset(c Contract) *FixedOffset {
	return &FixedOffset{contract: c}
}

// Contract returns the layout contract the accessor reads with.
func (f *FixedOffset) Contract() Contract {
	return f.contract
}

// Stage returns the counter verbatim.
func (f *FixedOffset) Stage(rec Memory) (uint16, error) {
	mem := rec.Memory()
	off := f.contract.StageOffset
	if off < 0 || len(mem) < off+stageWidth {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrShortRecord, off+stageWidth, len(mem))
	}
	return binary.LittleEndian.Uint16(mem[off : off+stageWidth]), nil
}

// EncodeStage writes stage into mem at the contract offset, growing mem
// when needed. Hosts that build records in Go memory use it.
func (c Contract) EncodeStage(mem []byte, stage uint16) []byte {
	if len(mem) < c.Size() {
		grown := make([]byte, c.Size())
		copy(grown, mem)
		mem = grown
	}
	binary.LittleEndian.PutUint16(mem[c.StageOffset:], stage)
	return mem
}

// View exposes size bytes of foreign memory starting at p without copying.
// The caller guarantees p stays valid for the lifetime of the returned slice,
// which in practice means a single pass.
func View(p unsafe.Pointer, size int) []byte {
	if p == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), size)
}
