package congestion

import (
	"time"
)

// RTTEstimator provides an interface for estimating round-trip time.
// Implementations are safe for concurrent use.
type RTTEstimator interface {
	String() string

	EstimatedRTT() time.Duration // smoothed RTT
	DeviationRTT() time.Duration // RTT variation
	RTO() time.Duration          // current retransmission timeout

	AddMeasurement(sample time.Duration, retransmitted bool) // add a new RTT measurement
	Backoff()                                                // double the RTO after a timeout
}
