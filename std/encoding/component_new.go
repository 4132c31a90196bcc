package encoding

func NewBytesComponent(typ TLNum, val []byte) Component {
	return Component{Typ: typ, Val: val}
}

func NewStringComponent(typ TLNum, val string) Component {
	return Component{Typ: typ, Val: []byte(val)}
}

func NewGenericComponent(val string) Component {
	return NewStringComponent(TypeGenericNameComponent, val)
}

func NewKeywordComponent(val string) Component {
	return NewStringComponent(TypeKeywordNameComponent, val)
}

func NewNumberComponent(typ TLNum, val uint64) Component {
	return Component{Typ: typ, Val: Nat(val).Bytes()}
}

func NewSegmentComponent(seg uint64) Component {
	return NewNumberComponent(TypeSegmentNameComponent, seg)
}

func NewVersionComponent(v uint64) Component {
	return NewNumberComponent(TypeVersionNameComponent, v)
}

func NewTimestampComponent(t uint64) Component {
	return NewNumberComponent(TypeTimestampNameComponent, t)
}

func NewSequenceNumComponent(seq uint64) Component {
	return NewNumberComponent(TypeSequenceNumNameComponent, seq)
}
