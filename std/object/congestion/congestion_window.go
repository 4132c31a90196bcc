package congestion

import "fmt"

// CongestionSignal represents signals to adjust the congestion window.
type CongestionSignal int

const (
	SigData    CongestionSignal = iota // data is fetched
	SigLoss                            // data loss detected
	SigCongest                         // congestion detected (e.g. NACK with a reason of congestion)
)

// CongestionWindow provides an interface for congestion control that manages a window.
// Implementations are safe for concurrent use.
type CongestionWindow interface {
	String() string

	HandleSignal(signal CongestionSignal) // signal handler

	Size() int
	IncreaseWindow()
	DecreaseWindow()
}

// NewCongestionWindow creates a window by algorithm name: cubic, aimd or fixed.
// rtt is used by cubic and may be nil.
func NewCongestionWindow(algo string, cwnd int, rtt RTTEstimator) (CongestionWindow, error) {
	if cwnd < 1 {
		return nil, fmt.Errorf("initial congestion window must be positive: %d", cwnd)
	}
	switch algo {
	case "cubic", "":
		return NewCUBICCongestionWindow(cwnd, rtt), nil
	case "aimd":
		return NewAIMDCongestionWindow(cwnd), nil
	case "fixed":
		return NewFixedCongestionWindow(cwnd), nil
	default:
		return nil, fmt.Errorf("unknown congestion algorithm: %s", algo)
	}
}
