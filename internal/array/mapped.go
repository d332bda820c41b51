package array

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"tabula/internal/engineerrors"
	"tabula/internal/typecode"
)

// magic and version identify tabula's mapped-array file format (spec §6).
const (
	mappedMagic   uint32 = 0x54424c41 // "TBLA"
	mappedVersion uint16 = 1
)

// headerSize is fixed regardless of TypeCode: magic(4) + version(2) +
// typeCode(1) + length(4) + capacity(4) + defaultValue(8, zero-padded).
const headerSize = 4 + 2 + 1 + 4 + 4 + 8

// mappedRegion is the memory-mapped byte backing for a MAPPED TypedArray.
// Reads/writes to the in-memory mirror go through Typed[T].data; mappedRegion
// exists to keep a durable copy in sync and to reload it on reopen, per
// spec §3's "layout is stable across process restarts for fixed-width
// types" invariant.
type mappedRegion struct {
	file     *os.File
	data     []byte
	elemSize int
	code     typecode.Code
}

// createMapped allocates (or truncates) the backing file to hold capacity
// elements of the given fixed-width code and maps it into memory.
func createMapped(path string, code typecode.Code, capacity int, defaultValue float64) (*mappedRegion, error) {
	if !code.FixedWidth() {
		return nil, engineerrors.NewTypeMismatch("createMapped", stringerCode("fixed-width"), code)
	}
	elemSize := code.ElementSize()
	size := int64(headerSize + capacity*elemSize)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, engineerrors.WrapIO("createMapped.open", err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, engineerrors.WrapIO("createMapped.truncate", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, engineerrors.WrapIO("createMapped.mmap", err)
	}

	r := &mappedRegion{file: f, data: data, elemSize: elemSize, code: code}
	r.writeHeader(0, capacity, defaultValue)
	return r, nil
}

func (r *mappedRegion) writeHeader(length, capacity int, defaultValue float64) {
	binary.BigEndian.PutUint32(r.data[0:4], mappedMagic)
	binary.BigEndian.PutUint16(r.data[4:6], mappedVersion)
	r.data[6] = byte(r.code)
	binary.BigEndian.PutUint32(r.data[7:11], uint32(length))
	binary.BigEndian.PutUint32(r.data[11:15], uint32(capacity))
	binary.BigEndian.PutUint64(r.data[15:23], mathFloatBits(defaultValue))
}

func (r *mappedRegion) setLength(length int) {
	binary.BigEndian.PutUint32(r.data[7:11], uint32(length))
}

func (r *mappedRegion) slotOffset(i int) int { return headerSize + i*r.elemSize }

// writeBits stores the raw little-endian-free, big-endian encoded bit
// pattern for element i; callers pass the already-converted bit pattern so
// this file doesn't need a type switch per TypeCode.
func (r *mappedRegion) writeBits(i int, bits uint64) {
	off := r.slotOffset(i)
	switch r.elemSize {
	case 1:
		r.data[off] = byte(bits)
	case 4:
		binary.BigEndian.PutUint32(r.data[off:off+4], uint32(bits))
	case 8:
		binary.BigEndian.PutUint64(r.data[off:off+8], bits)
	case 10:
		binary.BigEndian.PutUint64(r.data[off:off+8], bits)
		// zone index written separately via writeZoneIdx
	}
}

func (r *mappedRegion) writeZoneIdx(i int, zoneIdx int16) {
	off := r.slotOffset(i) + 8
	binary.BigEndian.PutUint16(r.data[off:off+2], uint16(zoneIdx))
}

func (r *mappedRegion) readBits(i int) uint64 {
	off := r.slotOffset(i)
	switch r.elemSize {
	case 1:
		return uint64(r.data[off])
	case 4:
		return uint64(binary.BigEndian.Uint32(r.data[off : off+4]))
	default:
		return binary.BigEndian.Uint64(r.data[off : off+8])
	}
}

func (r *mappedRegion) readZoneIdx(i int) int16 {
	off := r.slotOffset(i) + 8
	return int16(binary.BigEndian.Uint16(r.data[off : off+2]))
}

// flush synchronizes the mapped pages to the backing file; called on
// teardown (spec §3: "memory-mapped backends must flush and unmap").
func (r *mappedRegion) flush() error {
	if err := unix.Msync(r.data, unix.MS_SYNC); err != nil {
		return errors.Wrap(err, "mappedRegion.flush")
	}
	return nil
}

func (r *mappedRegion) close() error {
	if err := r.flush(); err != nil {
		return err
	}
	if err := unix.Munmap(r.data); err != nil {
		return errors.Wrap(err, "mappedRegion.close")
	}
	return r.file.Close()
}

func mathFloatBits(f float64) uint64 {
	// Store defaultValue as its IEEE-754 bit pattern regardless of the
	// element's natural type; readers interpret it per TypeCode.
	return math.Float64bits(f)
}

type stringerCode string

func (s stringerCode) String() string { return string(s) }

// NewMappedFloat64Array creates (or truncates) a MAPPED-backend array at
// path holding length float64 slots, all initialized to defaultValue. The
// in-memory mirror (Typed.data) and the mmap'd file are kept in lockstep by
// every subsequent Set call (spec §3, §6).
func NewMappedFloat64Array(path string, length int, defaultValue float64) (Array, error) {
	mm, err := createMapped(path, typecode.Float64, length, defaultValue)
	if err != nil {
		return nil, err
	}
	for i := 0; i < length; i++ {
		mm.writeBits(i, math.Float64bits(defaultValue))
	}
	mm.setLength(length)

	t := newTyped(typecode.Float64, length, defaultValue, cmpFloat64)
	t.style = Mapped
	t.mm = mm
	t.toFloat = func(v float64) float64 { return v }
	t.encodeBits = func(v float64) (uint64, int16) { return math.Float64bits(v), 0 }
	return wrap(t, accessorFloat64), nil
}

// OpenMappedFloat64Array reopens a file written by NewMappedFloat64Array,
// restoring length/capacity/defaultValue from the header and rehydrating
// the in-memory mirror from the mapped bytes.
func OpenMappedFloat64Array(path string) (Array, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, engineerrors.WrapIO("OpenMappedFloat64Array.open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, engineerrors.WrapIO("OpenMappedFloat64Array.stat", err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, engineerrors.WrapIO("OpenMappedFloat64Array.mmap", err)
	}
	mm := &mappedRegion{file: f, data: data, elemSize: typecode.Float64.ElementSize(), code: typecode.Float64}

	length := int(binary.BigEndian.Uint32(data[7:11]))
	capacity := int(binary.BigEndian.Uint32(data[11:15]))
	defaultValue := math.Float64frombits(binary.BigEndian.Uint64(data[15:23]))

	t := newTyped(typecode.Float64, length, defaultValue, cmpFloat64)
	t.style = Mapped
	t.capacity = capacity
	t.mm = mm
	t.toFloat = func(v float64) float64 { return v }
	t.encodeBits = func(v float64) (uint64, int16) { return math.Float64bits(v), 0 }
	for i := 0; i < length; i++ {
		t.data[i] = math.Float64frombits(mm.readBits(i))
	}
	return wrap(t, accessorFloat64), nil
}
