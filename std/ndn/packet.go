package ndn

import (
	"strings"
	"time"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/types/optional"
)

// FwHint is a forwarding hint: an ordered list of delegation names.
type FwHint []enc.Name

func (h FwHint) String() string {
	strs := make([]string, len(h))
	for i, n := range h {
		strs[i] = n.String()
	}
	return strings.Join(strs, ",")
}

// FwHintFromStr parses a comma-separated list of delegation names.
func FwHintFromStr(s string) (FwHint, error) {
	parts := strings.Split(s, ",")
	hint := make(FwHint, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, ErrInvalidValue{Item: "forwarding hint", Value: s}
		}
		name, err := enc.NameFromStr(p)
		if err != nil {
			return nil, err
		}
		if len(name) == 0 {
			return nil, ErrInvalidValue{Item: "forwarding hint", Value: s}
		}
		hint = append(hint, name)
	}
	return hint, nil
}

// InterestConfig is used to create an Interest.
type InterestConfig struct {
	CanBePrefix    bool
	MustBeFresh    bool
	ForwardingHint FwHint
	Nonce          optional.Optional[uint32]
	Lifetime       optional.Optional[time.Duration]
	HopLimit       *byte
}

// Interest is a decoded or to-be-encoded Interest packet.
type Interest struct {
	Name enc.Name
	InterestConfig
}

// Data is a decoded Data packet.
type Data struct {
	Name         enc.Name
	ContentType  optional.Optional[ContentType]
	Freshness    optional.Optional[time.Duration]
	FinalBlockID optional.Optional[enc.Component]
	Content      []byte
	SigType      SigType
}

// Nack is a network NACK carried in an NDNLPv2 header.
type Nack struct {
	Reason   uint64
	Interest *Interest
}

// ExpressCallbackArgs represents the arguments passed to an express callback.
type ExpressCallbackArgs struct {
	// Result of the Interest expression.
	// If the result is not InterestResultData, Data is nil.
	Result InterestResult
	// Data fetched.
	Data *Data
	// NACK reason code, if the result is InterestResultNack.
	NackReason uint64
	// Error, if the result is InterestResultError.
	Error error
}

// ExpressCallbackFunc represents the callback function for Interest expression.
type ExpressCallbackFunc func(args ExpressCallbackArgs)
