// Package spec_2022 implements the NDN packet format v0.3 and the NDNLPv2
// link protocol headers needed by a consumer.
package spec_2022

import (
	"crypto/sha256"
	"fmt"
	"time"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
)

const (
	TypeInterest         enc.TLNum = 0x05
	TypeData             enc.TLNum = 0x06
	TypeCanBePrefix      enc.TLNum = 0x21
	TypeMustBeFresh      enc.TLNum = 0x12
	TypeForwardingHint   enc.TLNum = 0x1e
	TypeNonce            enc.TLNum = 0x0a
	TypeInterestLifetime enc.TLNum = 0x0c
	TypeHopLimit         enc.TLNum = 0x22
	TypeAppParameters    enc.TLNum = 0x24
	TypeMetaInfo         enc.TLNum = 0x14
	TypeContentType      enc.TLNum = 0x18
	TypeFreshnessPeriod  enc.TLNum = 0x19
	TypeFinalBlockId     enc.TLNum = 0x1a
	TypeContent          enc.TLNum = 0x15
	TypeSignatureInfo    enc.TLNum = 0x16
	TypeSignatureType    enc.TLNum = 0x1b
	TypeSignatureValue   enc.TLNum = 0x17

	TypeLpPacket   enc.TLNum = 0x64
	TypeFragment   enc.TLNum = 0x50
	TypeFragIndex  enc.TLNum = 0x52
	TypeFragCount  enc.TLNum = 0x53
	TypeNack       enc.TLNum = 0x0320
	TypeNackReason enc.TLNum = 0x0321
)

// Packet is a decoded network layer packet.
// Exactly one of Interest, Data is set; Nack is set with Interest.
type Packet struct {
	Interest *ndn.Interest
	Data     *ndn.Data
	Nack     *ndn.Nack
}

// EncodeInterest encodes an Interest packet.
func EncodeInterest(interest *ndn.Interest) ([]byte, error) {
	if len(interest.Name) == 0 {
		return nil, ndn.ErrInvalidValue{Item: "Interest.Name", Value: interest.Name}
	}

	val := enc.Buffer(interest.Name.Bytes())
	if interest.CanBePrefix {
		val = enc.AppendTLV(val, TypeCanBePrefix, nil)
	}
	if interest.MustBeFresh {
		val = enc.AppendTLV(val, TypeMustBeFresh, nil)
	}
	if len(interest.ForwardingHint) > 0 {
		var links enc.Buffer
		for _, del := range interest.ForwardingHint {
			links = append(links, del.Bytes()...)
		}
		val = enc.AppendTLV(val, TypeForwardingHint, links)
	}
	if nonce, ok := interest.Nonce.Get(); ok {
		val = enc.AppendTLV(val, TypeNonce, []byte{
			byte(nonce >> 24), byte(nonce >> 16), byte(nonce >> 8), byte(nonce)})
	}
	if life, ok := interest.Lifetime.Get(); ok {
		if life < 0 {
			return nil, ndn.ErrInvalidValue{Item: "Interest.Lifetime", Value: life}
		}
		val = enc.AppendNatTLV(val, TypeInterestLifetime, uint64(life.Milliseconds()))
	}
	if interest.HopLimit != nil {
		val = enc.AppendTLV(val, TypeHopLimit, []byte{*interest.HopLimit})
	}

	return enc.AppendTLV(nil, TypeInterest, val), nil
}

// ParseInterest parses an Interest packet including the outer TLV.
func ParseInterest(buf []byte) (*ndn.Interest, error) {
	val, err := expectOuter(buf, TypeInterest)
	if err != nil {
		return nil, err
	}
	return parseInterestValue(val)
}

func parseInterestValue(val []byte) (*ndn.Interest, error) {
	ret := &ndn.Interest{}
	hasName := false
	r := enc.NewReader(val)
	for !r.IsEOF() {
		typ, v, err := r.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch typ {
		case enc.TypeName:
			if ret.Name, err = enc.ParseNameInner(v); err != nil {
				return nil, err
			}
			hasName = true
		case TypeCanBePrefix:
			ret.CanBePrefix = true
		case TypeMustBeFresh:
			ret.MustBeFresh = true
		case TypeForwardingHint:
			if ret.ForwardingHint, err = parseLinks(v); err != nil {
				return nil, err
			}
		case TypeNonce:
			if len(v) != 4 {
				return nil, enc.ErrFormat{Msg: "Nonce must be 4 bytes"}
			}
			ret.Nonce.Set(uint32(v[0])<<24 | uint32(v[1])<<16 | uint32(v[2])<<8 | uint32(v[3]))
		case TypeInterestLifetime:
			ms, err := enc.ParseNat(v)
			if err != nil {
				return nil, err
			}
			ret.Lifetime.Set(time.Duration(ms) * time.Millisecond)
		case TypeHopLimit:
			if len(v) != 1 {
				return nil, enc.ErrFormat{Msg: "HopLimit must be 1 byte"}
			}
			hl := v[0]
			ret.HopLimit = &hl
		default:
			if typ.IsCritical() && typ != TypeAppParameters {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
		}
	}
	if !hasName {
		return nil, enc.ErrFormat{Msg: "Interest has no Name"}
	}
	return ret, nil
}

func parseLinks(val []byte) (ndn.FwHint, error) {
	var ret ndn.FwHint
	r := enc.NewReader(val)
	for !r.IsEOF() {
		typ, v, err := r.ReadTLV()
		if err != nil {
			return nil, err
		}
		if typ != enc.TypeName {
			continue
		}
		name, err := enc.ParseNameInner(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, name)
	}
	return ret, nil
}

// EncodeData encodes a Data packet with a DigestSha256 signature.
func EncodeData(data *ndn.Data) []byte {
	var meta enc.Buffer
	if ct, ok := data.ContentType.Get(); ok {
		meta = enc.AppendNatTLV(meta, TypeContentType, uint64(ct))
	}
	if fp, ok := data.Freshness.Get(); ok {
		meta = enc.AppendNatTLV(meta, TypeFreshnessPeriod, uint64(fp.Milliseconds()))
	}
	if fb, ok := data.FinalBlockID.Get(); ok {
		meta = enc.AppendTLV(meta, TypeFinalBlockId, fb.Bytes())
	}

	covered := enc.Buffer(data.Name.Bytes())
	covered = enc.AppendTLV(covered, TypeMetaInfo, meta)
	covered = enc.AppendTLV(covered, TypeContent, data.Content)
	covered = enc.AppendTLV(covered, TypeSignatureInfo,
		enc.AppendNatTLV(nil, TypeSignatureType, uint64(ndn.SignatureDigestSha256)))

	digest := sha256.Sum256(covered)
	val := enc.AppendTLV(covered, TypeSignatureValue, digest[:])
	return enc.AppendTLV(nil, TypeData, val)
}

// ParseData parses a Data packet including the outer TLV.
// The signature is not verified.
func ParseData(buf []byte) (*ndn.Data, error) {
	val, err := expectOuter(buf, TypeData)
	if err != nil {
		return nil, err
	}

	ret := &ndn.Data{SigType: ndn.SignatureNone}
	hasName := false
	r := enc.NewReader(val)
	for !r.IsEOF() {
		typ, v, err := r.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch typ {
		case enc.TypeName:
			if ret.Name, err = enc.ParseNameInner(v); err != nil {
				return nil, err
			}
			hasName = true
		case TypeMetaInfo:
			if err = parseMetaInfo(v, ret); err != nil {
				return nil, err
			}
		case TypeContent:
			ret.Content = v
		case TypeSignatureInfo:
			sr := enc.NewReader(v)
			for !sr.IsEOF() {
				st, sv, err := sr.ReadTLV()
				if err != nil {
					return nil, err
				}
				if st == TypeSignatureType {
					n, err := enc.ParseNat(sv)
					if err != nil {
						return nil, err
					}
					ret.SigType = ndn.SigType(n)
				}
			}
		case TypeSignatureValue:
			// not validated
		default:
			if typ.IsCritical() {
				return nil, enc.ErrUnrecognizedField{TypeNum: typ}
			}
		}
	}
	if !hasName {
		return nil, enc.ErrFormat{Msg: "Data has no Name"}
	}
	return ret, nil
}

func parseMetaInfo(val []byte, data *ndn.Data) error {
	r := enc.NewReader(val)
	for !r.IsEOF() {
		typ, v, err := r.ReadTLV()
		if err != nil {
			return err
		}
		switch typ {
		case TypeContentType:
			n, err := enc.ParseNat(v)
			if err != nil {
				return err
			}
			data.ContentType.Set(ndn.ContentType(n))
		case TypeFreshnessPeriod:
			n, err := enc.ParseNat(v)
			if err != nil {
				return err
			}
			data.Freshness.Set(time.Duration(n) * time.Millisecond)
		case TypeFinalBlockId:
			c, err := enc.ComponentFromBytes(v)
			if err != nil {
				return err
			}
			data.FinalBlockID.Set(c)
		}
	}
	return nil
}

// EncodeNack wraps an encoded Interest into an LpPacket carrying a Nack header.
func EncodeNack(interestWire []byte, reason uint64) []byte {
	nack := enc.AppendTLV(nil, TypeNack, enc.AppendNatTLV(nil, TypeNackReason, reason))
	return enc.AppendTLV(nil, TypeLpPacket, enc.AppendTLV(nack, TypeFragment, interestWire))
}

// ParsePacket decodes a frame received from a face.
// LpPacket headers other than Nack are ignored; fragmented packets are rejected.
func ParsePacket(frame []byte) (*Packet, error) {
	typ, pos := enc.ParseTLNum(frame)
	if pos == 0 {
		return nil, enc.ErrBufferOverflow{}
	}

	switch typ {
	case TypeInterest:
		interest, err := ParseInterest(frame)
		if err != nil {
			return nil, err
		}
		return &Packet{Interest: interest}, nil
	case TypeData:
		data, err := ParseData(frame)
		if err != nil {
			return nil, err
		}
		return &Packet{Data: data}, nil
	case TypeLpPacket:
		return parseLpPacket(frame)
	default:
		return nil, fmt.Errorf("%w: type %d", ndn.ErrWrongType, typ)
	}
}

func parseLpPacket(frame []byte) (*Packet, error) {
	val, err := expectOuter(frame, TypeLpPacket)
	if err != nil {
		return nil, err
	}

	var fragment []byte
	var nack *ndn.Nack
	r := enc.NewReader(val)
	for !r.IsEOF() {
		typ, v, err := r.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeFragment:
			fragment = v
		case TypeFragCount:
			if n, _ := enc.ParseNat(v); n > 1 {
				return nil, ndn.ErrNotSupported{Item: "LpPacket fragmentation"}
			}
		case TypeNack:
			nack = &ndn.Nack{}
			nr := enc.NewReader(v)
			for !nr.IsEOF() {
				nt, nv, err := nr.ReadTLV()
				if err != nil {
					return nil, err
				}
				if nt == TypeNackReason {
					n, err := enc.ParseNat(nv)
					if err != nil {
						return nil, err
					}
					nack.Reason = uint64(n)
				}
			}
		}
	}

	// IDLE packet
	if fragment == nil {
		return &Packet{}, nil
	}

	pkt, err := ParsePacket(fragment)
	if err != nil {
		return nil, err
	}
	if nack != nil {
		if pkt.Interest == nil {
			return nil, enc.ErrFormat{Msg: "Nack fragment is not an Interest"}
		}
		nack.Interest = pkt.Interest
		pkt.Nack = nack
	}
	return pkt, nil
}

func expectOuter(buf []byte, want enc.TLNum) ([]byte, error) {
	r := enc.NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return nil, err
	}
	if typ != want {
		return nil, ndn.ErrWrongType
	}
	return val, nil
}
