package encoding

import (
	"strings"

	"github.com/cespare/xxhash"
)

type Name []Component

const TypeName TLNum = 0x07

func (n Name) String() string {
	sb := strings.Builder{}
	for i, c := range n {
		sb.WriteRune('/')
		sz := c.WriteTo(&sb)
		if i == len(n)-1 && sz == 0 {
			sb.WriteRune('/')
		}
	}
	if sb.Len() == 0 {
		return "/"
	}
	return sb.String()
}

// EncodeInto encodes a Name into a Buffer **excluding** the TL prefix.
// Please use Bytes() to get the fully encoded name.
func (n Name) EncodeInto(buf Buffer) int {
	pos := 0
	for _, c := range n {
		pos += c.EncodeInto(buf[pos:])
	}
	return pos
}

// EncodingLength computes a Name's length after encoding **excluding** the TL prefix.
func (n Name) EncodingLength() int {
	ret := 0
	for _, c := range n {
		ret += c.EncodingLength()
	}
	return ret
}

// Bytes returns the encoded bytes of a Name including the TL prefix.
func (n Name) Bytes() []byte {
	return AppendTLV(nil, TypeName, n.BytesInner())
}

// BytesInner returns the encoded bytes of a Name **excluding** the TL prefix.
func (n Name) BytesInner() []byte {
	buf := make([]byte, n.EncodingLength())
	n.EncodeInto(buf)
	return buf
}

// Clone returns a deep copy of a Name
func (n Name) Clone() Name {
	ret := make(Name, len(n))
	for i, c := range n {
		ret[i] = c.Clone()
	}
	return ret
}

// Get the ith component of a Name.
// If i is out of range, a zero component is returned.
// Negative values start from the end.
func (n Name) At(i int) Component {
	if i < -len(n) || i >= len(n) {
		return Component{}
	} else if i < 0 {
		return n[len(n)+i]
	}
	return n[i]
}

// Get a name prefix with the first i components.
// If i is negative, i components are removed from the end.
// Note that the returned name is not a deep copy.
func (n Name) Prefix(i int) Name {
	if i < 0 {
		i = len(n) + i
	}
	if i <= 0 {
		return Name{}
	}
	if i >= len(n) {
		return n
	}
	return n[:i]
}

// Append appends components to a copy of the name.
// The receiver is never modified.
func (n Name) Append(rest ...Component) Name {
	ret := make(Name, len(n), len(n)+len(rest))
	copy(ret, n)
	return append(ret, rest...)
}

func (n Name) Equal(rhs Name) bool {
	if len(n) != len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

// IsPrefix returns true if n is a prefix of (or equal to) rhs.
func (n Name) IsPrefix(rhs Name) bool {
	if len(n) > len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

func (n Name) Compare(rhs Name) int {
	for i := 0; i < min(len(n), len(rhs)); i++ {
		if ret := n[i].Compare(rhs[i]); ret != 0 {
			return ret
		}
	}
	switch {
	case len(n) < len(rhs):
		return -1
	case len(n) > len(rhs):
		return 1
	default:
		return 0
	}
}

// Hash returns the hash of the name
func (n Name) Hash() uint64 {
	return xxhash.Sum64(n.BytesInner())
}

// PrefixHash returns the hash value of all prefixes of the name
// ret[i] is the hash of the prefix of length i. ret[0] is the same for all names.
// ret[len(n)] equals n.Hash().
func (n Name) PrefixHash() []uint64 {
	h := xxhash.New()
	ret := make([]uint64, len(n)+1)
	ret[0] = h.Sum64()
	for i, c := range n {
		h.Write(c.Bytes())
		ret[i+1] = h.Sum64()
	}
	return ret
}

// NameFromStr parses a URI string into a Name
func NameFromStr(s string) (Name, error) {
	strs := strings.Split(s, "/")
	// Removing leading and trailing empty strings given by /
	if strs[0] == "" {
		strs = strs[1:]
	}
	if len(strs) > 0 && strs[len(strs)-1] == "" {
		strs = strs[:len(strs)-1]
	}
	ret := make(Name, len(strs))
	for i, str := range strs {
		if err := componentFromStrInto(str, &ret[i]); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// NameFromBytes parses a TLV encoded Name **including** the TL prefix.
func NameFromBytes(buf []byte) (Name, error) {
	r := NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return nil, err
	}
	if typ != TypeName {
		return nil, ErrFormat{"encoding.NameFromBytes: given bytes is not a Name"}
	}
	if !r.IsEOF() {
		return nil, ErrFormat{"encoding.NameFromBytes: trailing bytes after Name"}
	}
	return ParseNameInner(val)
}

// ParseNameInner parses the value part of a Name TLV.
func ParseNameInner(buf []byte) (Name, error) {
	r := NewReader(buf)
	ret := make(Name, 0, 8)
	for !r.IsEOF() {
		c, err := r.ReadComponent()
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}
