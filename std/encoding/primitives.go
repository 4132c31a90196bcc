package encoding

import (
	"encoding/binary"
)

// TLNum is a TLV Type or Length number
type TLNum uint64

// Nat is a TLV natural number
type Nat uint64

// Buffer is a buffer of bytes
type Buffer []byte

// Wire is a collection of Buffer. May be allocated in non-contiguous memory.
type Wire []Buffer

// Join copies all buffers of the wire into one contiguous slice.
func (w Wire) Join() []byte {
	switch len(w) {
	case 0:
		return []byte{}
	case 1:
		return w[0]
	}

	b := make([]byte, 0, w.Length())
	for _, v := range w {
		b = append(b, v...)
	}
	return b
}

// Length is the total number of bytes in the wire.
func (w Wire) Length() int {
	ret := 0
	for _, v := range w {
		ret += len(v)
	}
	return ret
}

// EncodingLength is the size of the variable-length encoding of v.
func (v TLNum) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xfc:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// EncodeInto writes v into buf and returns the number of bytes written.
// buf must have at least EncodingLength() bytes.
func (v TLNum) EncodeInto(buf Buffer) int {
	switch x := uint64(v); {
	case x <= 0xfc:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.BigEndian.PutUint16(buf[1:], uint16(x))
		return 3
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.BigEndian.PutUint32(buf[1:], uint32(x))
		return 5
	default:
		buf[0] = 0xff
		binary.BigEndian.PutUint64(buf[1:], x)
		return 9
	}
}

// ParseTLNum parses a TLNum from the front of buf.
// Returns pos = 0 if buf is too short.
func ParseTLNum(buf Buffer) (val TLNum, pos int) {
	if len(buf) == 0 {
		return 0, 0
	}
	switch x := buf[0]; {
	case x <= 0xfc:
		return TLNum(x), 1
	case x == 0xfd && len(buf) >= 3:
		return TLNum(binary.BigEndian.Uint16(buf[1:3])), 3
	case x == 0xfe && len(buf) >= 5:
		return TLNum(binary.BigEndian.Uint32(buf[1:5])), 5
	case x == 0xff && len(buf) >= 9:
		return TLNum(binary.BigEndian.Uint64(buf[1:9])), 9
	}
	return 0, 0
}

// EncodingLength is the size of the shortest NonNegativeInteger encoding of v.
func (v Nat) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xff:
		return 1
	case x <= 0xffff:
		return 2
	case x <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// EncodeInto writes v into buf as a NonNegativeInteger.
func (v Nat) EncodeInto(buf Buffer) int {
	switch x := uint64(v); {
	case x <= 0xff:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		binary.BigEndian.PutUint16(buf, uint16(x))
		return 2
	case x <= 0xffffffff:
		binary.BigEndian.PutUint32(buf, uint32(x))
		return 4
	default:
		binary.BigEndian.PutUint64(buf, x)
		return 8
	}
}

// Bytes returns the NonNegativeInteger encoding of v.
func (v Nat) Bytes() []byte {
	buf := make([]byte, v.EncodingLength())
	v.EncodeInto(buf)
	return buf
}

// ParseNat parses a NonNegativeInteger. Only lengths 1, 2, 4 and 8 are valid.
func ParseNat(buf Buffer) (Nat, error) {
	switch len(buf) {
	case 1:
		return Nat(buf[0]), nil
	case 2:
		return Nat(binary.BigEndian.Uint16(buf)), nil
	case 4:
		return Nat(binary.BigEndian.Uint32(buf)), nil
	case 8:
		return Nat(binary.BigEndian.Uint64(buf)), nil
	default:
		return 0, ErrFormat{"natural number length is not 1, 2, 4 or 8"}
	}
}

// AppendTLV appends a TLV element with the given type and value to buf.
func AppendTLV(buf Buffer, typ TLNum, val []byte) Buffer {
	var hdr [18]byte
	p := typ.EncodeInto(hdr[:])
	p += TLNum(len(val)).EncodeInto(hdr[p:])
	buf = append(buf, hdr[:p]...)
	return append(buf, val...)
}

// AppendNatTLV appends a TLV element whose value is a NonNegativeInteger.
func AppendNatTLV(buf Buffer, typ TLNum, val uint64) Buffer {
	return AppendTLV(buf, typ, Nat(val).Bytes())
}
