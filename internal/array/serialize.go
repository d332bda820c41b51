package array

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	civil "github.com/golang-sql/civil"

	"tabula/internal/engineerrors"
	"tabula/internal/typecode"
)

// streamMagic/streamVersion tag tabula's in-stream array format (spec §6),
// distinct from the on-disk mapped-file header in mapped.go: this format is
// for Source/Sink transport (sockets, pipes, saved snapshots), not mmap.
const (
	streamMagic   uint32 = 0x54424c53 // "TBLS"
	streamVersion uint16 = 1
)

// Write serializes a into w as a self-describing stream:
// magic(4) | version(2) | typeCode(1) | length(4) | element bytes...
// Fixed-width TypeCodes write raw big-endian element bytes; variable-width
// ones (STRING, OBJECT, and the civil-backed temporal codes) write a
// uint32 length prefix per element.
func Write(w io.Writer, a Array) error {
	var hdr [11]byte
	binary.BigEndian.PutUint32(hdr[0:4], streamMagic)
	binary.BigEndian.PutUint16(hdr[4:6], streamVersion)
	hdr[6] = byte(a.Code())
	binary.BigEndian.PutUint32(hdr[7:11], uint32(a.Length()))
	if _, err := w.Write(hdr[:]); err != nil {
		return engineerrors.WrapIO("array.Write.header", err)
	}

	n := a.Length()
	for i := 0; i < n; i++ {
		v, err := a.GetValue(i)
		if err != nil {
			return err
		}
		if err := writeElement(w, a.Code(), v); err != nil {
			return engineerrors.WrapIO("array.Write.element", err)
		}
	}
	return nil
}

func writeElement(w io.Writer, code typecode.Code, v any) error {
	switch code {
	case typecode.Bool:
		b := byte(0)
		if v.(bool) {
			b = 1
		}
		_, err := w.Write([]byte{b})
		return err
	case typecode.Int32, typecode.Year, typecode.Enum:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v.(int32)))
		_, err := w.Write(buf[:])
		return err
	case typecode.Int64, typecode.Instant:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v.(int64)))
		_, err := w.Write(buf[:])
		return err
	case typecode.Float64, typecode.Currency:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.(float64)))
		_, err := w.Write(buf[:])
		return err
	case typecode.DateTimeZoned:
		z := v.(Zoned)
		var buf [10]byte
		binary.BigEndian.PutUint64(buf[0:8], uint64(z.EpochMillis))
		binary.BigEndian.PutUint16(buf[8:10], uint16(z.ZoneIdx))
		_, err := w.Write(buf[:])
		return err
	default:
		return writeString(w, formatElement(code, v))
	}
}

func formatElement(code typecode.Code, v any) string {
	switch code {
	case typecode.Date:
		return v.(civil.Date).String()
	case typecode.TimeLocal:
		return v.(civil.Time).String()
	case typecode.DateTimeLocal:
		return v.(civil.DateTime).String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// Read deserializes a stream written by Write, reconstructing a dense array
// of the encoded TypeCode and length.
func Read(r io.Reader) (Array, error) {
	var hdr [11]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, engineerrors.WrapIO("array.Read.header", err)
	}
	magic := binary.BigEndian.Uint32(hdr[0:4])
	if magic != streamMagic {
		return nil, engineerrors.WrapIO("array.Read.header", fmt.Errorf("bad magic %x", magic))
	}
	code := typecode.Code(hdr[6])
	length := int(binary.BigEndian.Uint32(hdr[7:11]))

	out := of(code, length)
	for i := 0; i < length; i++ {
		v, err := readElement(r, code)
		if err != nil {
			return nil, engineerrors.WrapIO("array.Read.element", err)
		}
		if _, err := out.SetValue(i, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readElement(r io.Reader, code typecode.Code) (any, error) {
	switch code {
	case typecode.Bool:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		return buf[0] != 0, nil
	case typecode.Int32, typecode.Year, typecode.Enum:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		return int32(binary.BigEndian.Uint32(buf[:])), nil
	case typecode.Int64, typecode.Instant:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(buf[:])), nil
	case typecode.Float64, typecode.Currency:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
	case typecode.DateTimeZoned:
		var buf [10]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		return Zoned{
			EpochMillis: int64(binary.BigEndian.Uint64(buf[0:8])),
			ZoneIdx:     int16(binary.BigEndian.Uint16(buf[8:10])),
		}, nil
	default:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		return parseElement(code, s)
	}
}

func readString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func parseElement(code typecode.Code, s string) (any, error) {
	switch code {
	case typecode.Date:
		return civil.ParseDate(s)
	case typecode.TimeLocal:
		return civil.ParseTime(s)
	case typecode.DateTimeLocal:
		return civil.ParseDateTime(s)
	case typecode.String:
		return s, nil
	default:
		return s, nil
	}
}
