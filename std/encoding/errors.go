package encoding

import "fmt"

type ErrFormat struct {
	Msg string
}

func (e ErrFormat) Error() string {
	return e.Msg
}

// ErrBufferOverflow is returned when a TLV element claims more bytes than are available.
type ErrBufferOverflow struct{}

func (ErrBufferOverflow) Error() string {
	return "buffer overflow when parsing TLV"
}

// ErrUnrecognizedField is returned for an unknown critical TLV type.
type ErrUnrecognizedField struct {
	TypeNum TLNum
}

func (e ErrUnrecognizedField) Error() string {
	return fmt.Sprintf("unrecognized critical field type: %d", e.TypeNum)
}

// IsCritical reports whether an unknown field of this type must fail the parse.
// See NDN packet format 1.4: types < 32 or odd types are critical.
func (t TLNum) IsCritical() bool {
	return t <= 31 || t&1 == 1
}
