// Package rdr implements the Realtime Data Retrieval metadata format.
package rdr

import (
	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/types/optional"
)

const MetadataKeyword = "metadata"

const (
	TypeSegmentSize enc.TLNum = 0xf500
	TypeSize        enc.TLNum = 0xf502
	TypeMode        enc.TLNum = 0xf504
	TypeAtime       enc.TLNum = 0xf506
	TypeBtime       enc.TLNum = 0xf508
	TypeCtime       enc.TLNum = 0xf50a
	TypeMtime       enc.TLNum = 0xf50c
	TypeObjectType  enc.TLNum = 0xf50e

	typeFinalBlockID enc.TLNum = 0x1a
)

// MetaData is the content of a metadata packet.
type MetaData struct {
	// Versioned name of the object
	Name enc.Name
	// Encoded FinalBlockId component, if known
	FinalBlockID []byte

	SegmentSize optional.Optional[uint64]
	Size        optional.Optional[uint64]
	Mode        optional.Optional[uint64]
	Atime       optional.Optional[uint64]
	Btime       optional.Optional[uint64]
	Ctime       optional.Optional[uint64]
	Mtime       optional.Optional[uint64]
	ObjectType  optional.Optional[string]
}

// MetadataName returns the name a consumer expresses to discover metadata of prefix.
func MetadataName(prefix enc.Name) enc.Name {
	return prefix.Append(enc.NewKeywordComponent(MetadataKeyword))
}

// Encode returns the TLV encoded metadata content.
func (m *MetaData) Encode() []byte {
	buf := enc.Buffer(m.Name.Bytes())
	if m.FinalBlockID != nil {
		buf = enc.AppendTLV(buf, typeFinalBlockID, m.FinalBlockID)
	}
	nats := []struct {
		typ enc.TLNum
		val optional.Optional[uint64]
	}{
		{TypeSegmentSize, m.SegmentSize},
		{TypeSize, m.Size},
		{TypeMode, m.Mode},
		{TypeAtime, m.Atime},
		{TypeBtime, m.Btime},
		{TypeCtime, m.Ctime},
		{TypeMtime, m.Mtime},
	}
	for _, f := range nats {
		if v, ok := f.val.Get(); ok {
			buf = enc.AppendNatTLV(buf, f.typ, v)
		}
	}
	if ot, ok := m.ObjectType.Get(); ok {
		buf = enc.AppendTLV(buf, TypeObjectType, []byte(ot))
	}
	return buf
}

// ParseMetaData decodes metadata content. The versioned name is required.
func ParseMetaData(buf []byte) (*MetaData, error) {
	ret := &MetaData{}
	r := enc.NewReader(buf)
	for !r.IsEOF() {
		typ, v, err := r.ReadTLV()
		if err != nil {
			return nil, err
		}

		var nat *optional.Optional[uint64]
		switch typ {
		case enc.TypeName:
			if ret.Name, err = enc.ParseNameInner(v); err != nil {
				return nil, err
			}
		case typeFinalBlockID:
			ret.FinalBlockID = append([]byte(nil), v...)
		case TypeSegmentSize:
			nat = &ret.SegmentSize
		case TypeSize:
			nat = &ret.Size
		case TypeMode:
			nat = &ret.Mode
		case TypeAtime:
			nat = &ret.Atime
		case TypeBtime:
			nat = &ret.Btime
		case TypeCtime:
			nat = &ret.Ctime
		case TypeMtime:
			nat = &ret.Mtime
		case TypeObjectType:
			ret.ObjectType.Set(string(v))
		default:
			if typ.IsCritical() {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
		}

		if nat != nil {
			n, err := enc.ParseNat(v)
			if err != nil {
				return nil, err
			}
			nat.Set(uint64(n))
		}
	}

	if len(ret.Name) == 0 {
		return nil, enc.ErrFormat{Msg: "metadata has no versioned name"}
	}
	return ret, nil
}
