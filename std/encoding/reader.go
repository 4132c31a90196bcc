package encoding

// Reader is a forward-only TLV parser over a contiguous buffer.
// Returned slices alias the underlying buffer.
type Reader struct {
	buf Buffer
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) IsEOF() bool {
	return r.pos >= len(r.buf)
}

func (r *Reader) Pos() int {
	return r.pos
}

func (r *Reader) ReadTLNum() (TLNum, error) {
	if r.IsEOF() {
		return 0, ErrBufferOverflow{}
	}
	v, p := ParseTLNum(r.buf[r.pos:])
	if p == 0 {
		return 0, ErrBufferOverflow{}
	}
	r.pos += p
	return v, nil
}

// ReadBuf reads l bytes without copy.
func (r *Reader) ReadBuf(l int) (Buffer, error) {
	if l < 0 || r.pos+l > len(r.buf) {
		return nil, ErrBufferOverflow{}
	}
	ret := r.buf[r.pos : r.pos+l]
	r.pos += l
	return ret, nil
}

// ReadTLV reads the next TLV element and returns its type and value.
func (r *Reader) ReadTLV() (TLNum, Buffer, error) {
	typ, err := r.ReadTLNum()
	if err != nil {
		return 0, nil, err
	}
	l, err := r.ReadTLNum()
	if err != nil {
		return 0, nil, err
	}
	val, err := r.ReadBuf(int(l))
	if err != nil {
		return 0, nil, err
	}
	return typ, val, nil
}

func (r *Reader) ReadComponent() (Component, error) {
	typ, val, err := r.ReadTLV()
	if err != nil {
		return Component{}, err
	}
	if typ == TypeInvalidComponent || typ > 0xffff {
		return Component{}, ErrFormat{"invalid name component type"}
	}
	return Component{Typ: typ, Val: val}, nil
}
