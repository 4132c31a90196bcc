package ndn

import "time"

// MaxNDNPacketSize is the maximum allowed NDN packet size
const MaxNDNPacketSize = 8800

// DefaultInterestLife is the lifetime used when an Interest does not set one.
const DefaultInterestLife = 4 * time.Second

// ContentType represents the type of Data content in MetaInfo.
type ContentType uint64

const (
	ContentTypeBlob     ContentType = 0
	ContentTypeLink     ContentType = 1
	ContentTypeKey      ContentType = 2
	ContentTypeNack     ContentType = 3
	ContentTypeManifest ContentType = 4
)

// SigType represents the type of signature.
type SigType int

const (
	SignatureNone            SigType = -1
	SignatureDigestSha256    SigType = 0
	SignatureSha256WithRsa   SigType = 1
	SignatureSha256WithEcdsa SigType = 3
	SignatureHmacWithSha256  SigType = 4
	SignatureEd25519         SigType = 5
)

const (
	NackReasonNone       = uint64(0)
	NackReasonCongestion = uint64(50)
	NackReasonDuplicate  = uint64(100)
	NackReasonNoRoute    = uint64(150)
)

// InterestResult represents the result of Interest expression.
// Can be Data fetched (succeeded), NetworkNack received, or Timeout.
// Note that AppNack is considered as Data.
type InterestResult int

const (
	InterestResultNone InterestResult = iota
	// Data is fetched
	InterestResultData
	// NetworkNack is received
	InterestResultNack
	// Timeout
	InterestResultTimeout
	// Cancelled by the caller or due to disconnection
	InterestCancelled
	// Other error happens during handling the fetched data.
	InterestResultError
)

func (r InterestResult) String() string {
	switch r {
	case InterestResultNone:
		return "None"
	case InterestResultData:
		return "Data"
	case InterestResultNack:
		return "Nack"
	case InterestResultTimeout:
		return "Timeout"
	case InterestCancelled:
		return "Cancelled"
	case InterestResultError:
		return "Error"
	default:
		return "Unknown"
	}
}
