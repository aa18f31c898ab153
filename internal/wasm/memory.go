package wasm

import (
	"encoding/binary"

	"github.com/seanpm2001/threads/internal/wasmruntime"
)

// PageSize is the size in bytes of one Wasm linear-memory page (64KiB).
const PageSize = 65536

// MemoryInstance is a bounded, growable byte array organized in pages,
// per §3/§4.2. Addresses are computed as 64-bit internally (32-bit
// address zero-extended plus a 32-bit static offset) so an access can be
// detected as out-of-bounds even when the 32-bit sum would itself
// overflow.
type MemoryInstance struct {
	Buffer []byte
	Min    uint32
	Max    *uint32 // nil means bounded only by the 32-bit address space
	Shared bool

	// Threads waiting on this memory are not tracked here: each is marked
	// by a *Suspend instruction in its own code, which the scheduler
	// (internal/sched) scans for the notify rendezvous.
}

// NewMemory allocates a fresh memory instance with Min pages already
// committed, per the declared MemoryType.
func NewMemory(t MemoryType) *MemoryInstance {
	return &MemoryInstance{
		Buffer: make([]byte, uint64(t.Limits.Min)*PageSize),
		Min:    t.Limits.Min,
		Max:    t.Limits.Max,
		Shared: t.Shared,
	}
}

// Size returns the current size in pages.
func (m *MemoryInstance) Size() uint32 {
	return uint32(len(m.Buffer) / PageSize)
}

const maxMemoryPages = 1 << 16 // 4GiB address space / 64KiB pages

// Grow adds delta pages, returning the previous size in pages and ok=true,
// or ok=false if the grow would exceed the declared max, the 32-bit
// page-count space, or the implementation ceiling (memory.grow then pushes
// -1).
func (m *MemoryInstance) Grow(delta uint32) (previous uint32, ok bool) {
	cur := m.Size()
	if delta == 0 {
		return cur, true
	}
	next := uint64(cur) + uint64(delta)
	if next > maxMemoryPages {
		return 0, false
	}
	if m.Max != nil && next > uint64(*m.Max) {
		return 0, false
	}
	m.Buffer = append(m.Buffer, make([]byte, uint64(delta)*PageSize)...)
	return cur, true
}

func (m *MemoryInstance) bound() uint64 { return uint64(len(m.Buffer)) }

// EffectiveAddress computes the 64-bit effective address for a base i32
// address plus a static offset, as used by every scalar/vector/atomic
// memory instruction.
func EffectiveAddress(base uint32, offset uint32) uint64 {
	return uint64(base) + uint64(offset)
}

func (m *MemoryInstance) checkBounds(addr uint64, accessSize uint64) error {
	if addr+accessSize > m.bound() {
		return wasmruntime.NewTrap(wasmruntime.MsgOutOfBoundsMemoryAccess, wasmruntime.Position{})
	}
	return nil
}

// Bytes returns a slice of size bytes at addr, bounds-checked.
func (m *MemoryInstance) Bytes(addr uint64, size uint64) ([]byte, error) {
	if err := m.checkBounds(addr, size); err != nil {
		return nil, err
	}
	return m.Buffer[addr : addr+size], nil
}

func (m *MemoryInstance) ReadUint8(addr uint64) (byte, error) {
	b, err := m.Bytes(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *MemoryInstance) WriteUint8(addr uint64, v byte) error {
	b, err := m.Bytes(addr, 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (m *MemoryInstance) ReadUint16(addr uint64) (uint16, error) {
	b, err := m.Bytes(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *MemoryInstance) WriteUint16(addr uint64, v uint16) error {
	b, err := m.Bytes(addr, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

func (m *MemoryInstance) ReadUint32(addr uint64) (uint32, error) {
	b, err := m.Bytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *MemoryInstance) WriteUint32(addr uint64, v uint32) error {
	b, err := m.Bytes(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (m *MemoryInstance) ReadUint64(addr uint64) (uint64, error) {
	b, err := m.Bytes(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *MemoryInstance) WriteUint64(addr uint64, v uint64) error {
	b, err := m.Bytes(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

func (m *MemoryInstance) ReadV128(addr uint64) (lo, hi uint64, err error) {
	b, err := m.Bytes(addr, 16)
	if err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]), nil
}

func (m *MemoryInstance) WriteV128(addr uint64, lo, hi uint64) error {
	b, err := m.Bytes(addr, 16)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b[:8], lo)
	binary.LittleEndian.PutUint64(b[8:], hi)
	return nil
}

// Fill writes n copies of val starting at dst, bounds-checked as a single
// pre-check before any byte is written (zero-length fills never trap).
func (m *MemoryInstance) Fill(dst uint64, val byte, n uint64) error {
	if n == 0 {
		return nil
	}
	if err := m.checkBounds(dst, n); err != nil {
		return err
	}
	b := m.Buffer[dst : dst+n]
	for i := range b {
		b[i] = val
	}
	return nil
}

// Copy moves n bytes from src to dst, bounds-checking both endpoints
// before any byte moves. Uses Go's copy, which already implements the
// overlap-safe direction (Go's runtime memmove handles dst > src
// correctly). The interpreter's "memory.copy" reduction (internal/engine/
// interpreter/memops.go) calls this as a single Go-level operation rather
// than elaborating one byte at a time; that is observably equivalent to
// an elementwise reduction here because both endpoints are bounds-checked
// up front, so a trap can only occur before any byte is written, per
// §4.5's "pre-checked" rule.
func (m *MemoryInstance) Copy(dst, src, n uint64) error {
	if n == 0 {
		return nil
	}
	if err := m.checkBounds(dst, n); err != nil {
		return err
	}
	if err := m.checkBounds(src, n); err != nil {
		return err
	}
	copy(m.Buffer[dst:dst+n], m.Buffer[src:src+n])
	return nil
}

func checkAlignment(addr uint64, accessSize uint64) error {
	if addr%accessSize != 0 {
		return wasmruntime.NewTrap(wasmruntime.MsgUnalignedAtomic, wasmruntime.Position{})
	}
	return nil
}

// AtomicLoad32/64 perform an alignment- and bounds-checked atomic load.
// Since the scheduler steps exactly one thread at a time (§5), no actual
// memory fence or lock is required here; the sequencing guarantee comes
// entirely from the embedder never interleaving two step calls.
func (m *MemoryInstance) AtomicLoad32(addr uint64) (uint32, error) {
	if err := checkAlignment(addr, 4); err != nil {
		return 0, err
	}
	return m.ReadUint32(addr)
}

func (m *MemoryInstance) AtomicStore32(addr uint64, v uint32) error {
	if err := checkAlignment(addr, 4); err != nil {
		return err
	}
	return m.WriteUint32(addr, v)
}

func (m *MemoryInstance) AtomicLoad64(addr uint64) (uint64, error) {
	if err := checkAlignment(addr, 8); err != nil {
		return 0, err
	}
	return m.ReadUint64(addr)
}

func (m *MemoryInstance) AtomicStore64(addr uint64, v uint64) error {
	if err := checkAlignment(addr, 8); err != nil {
		return err
	}
	return m.WriteUint64(addr, v)
}

// AtomicRMW32/64 implement the add/sub/and/or/xor/xchg read-modify-write
// family, returning the prior value.
func (m *MemoryInstance) AtomicRMW32(op string, addr uint64, operand uint32) (prior uint32, err error) {
	if err = checkAlignment(addr, 4); err != nil {
		return 0, err
	}
	prior, err = m.ReadUint32(addr)
	if err != nil {
		return 0, err
	}
	return prior, m.WriteUint32(addr, rmw32(op, prior, operand))
}

func rmw32(op string, prior, operand uint32) uint32 {
	switch op {
	case "add":
		return prior + operand
	case "sub":
		return prior - operand
	case "and":
		return prior & operand
	case "or":
		return prior | operand
	case "xor":
		return prior ^ operand
	case "xchg":
		return operand
	}
	wasmruntime.Crash("unknown atomic rmw operator %q", op)
	return 0
}

func (m *MemoryInstance) AtomicRMW64(op string, addr uint64, operand uint64) (prior uint64, err error) {
	if err = checkAlignment(addr, 8); err != nil {
		return 0, err
	}
	prior, err = m.ReadUint64(addr)
	if err != nil {
		return 0, err
	}
	return prior, m.WriteUint64(addr, rmw64(op, prior, operand))
}

func rmw64(op string, prior, operand uint64) uint64 {
	switch op {
	case "add":
		return prior + operand
	case "sub":
		return prior - operand
	case "and":
		return prior & operand
	case "or":
		return prior | operand
	case "xor":
		return prior ^ operand
	case "xchg":
		return operand
	}
	wasmruntime.Crash("unknown atomic rmw operator %q", op)
	return 0
}

// AtomicCompareExchange32/64 perform the alignment-checked compare-and-swap,
// returning the value observed before the (possible) write.
func (m *MemoryInstance) AtomicCompareExchange32(addr uint64, expected, replacement uint32) (prior uint32, err error) {
	if err = checkAlignment(addr, 4); err != nil {
		return 0, err
	}
	prior, err = m.ReadUint32(addr)
	if err != nil {
		return 0, err
	}
	if prior == expected {
		err = m.WriteUint32(addr, replacement)
	}
	return prior, err
}

func (m *MemoryInstance) AtomicCompareExchange64(addr uint64, expected, replacement uint64) (prior uint64, err error) {
	if err = checkAlignment(addr, 8); err != nil {
		return 0, err
	}
	prior, err = m.ReadUint64(addr)
	if err != nil {
		return 0, err
	}
	if prior == expected {
		err = m.WriteUint64(addr, replacement)
	}
	return prior, err
}
