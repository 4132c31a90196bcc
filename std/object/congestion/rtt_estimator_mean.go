package congestion

import (
	"sync"
	"time"
)

const (
	DefaultInitialRTO = time.Second
	DefaultMinRTO     = 200 * time.Millisecond
	DefaultMaxRTO     = 60 * time.Second
)

// MeanRTTEstimator is the mean/deviation estimator of RFC 6298.
// Samples of retransmitted requests are ignored (Karn's algorithm).
type MeanRTTEstimator struct {
	mutex sync.RWMutex

	alpha float64
	beta  float64
	k     float64

	minRTO time.Duration
	maxRTO time.Duration

	hasSample bool
	srtt      time.Duration
	rttvar    time.Duration
	rto       time.Duration
}

func NewMeanRTTEstimator() *MeanRTTEstimator {
	return &MeanRTTEstimator{
		alpha:  1.0 / 8,
		beta:   1.0 / 4,
		k:      4,
		minRTO: DefaultMinRTO,
		maxRTO: DefaultMaxRTO,
		rto:    DefaultInitialRTO,
	}
}

func (e *MeanRTTEstimator) String() string {
	return "mean-rtt-estimator"
}

func (e *MeanRTTEstimator) EstimatedRTT() time.Duration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.srtt
}

func (e *MeanRTTEstimator) DeviationRTT() time.Duration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.rttvar
}

func (e *MeanRTTEstimator) RTO() time.Duration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.rto
}

func (e *MeanRTTEstimator) AddMeasurement(sample time.Duration, retransmitted bool) {
	if retransmitted || sample <= 0 {
		return
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.hasSample {
		e.srtt = sample
		e.rttvar = sample / 2
		e.hasSample = true
	} else {
		diff := e.srtt - sample
		if diff < 0 {
			diff = -diff
		}
		e.rttvar = time.Duration((1-e.beta)*float64(e.rttvar) + e.beta*float64(diff))
		e.srtt = time.Duration((1-e.alpha)*float64(e.srtt) + e.alpha*float64(sample))
	}

	e.rto = e.clamp(e.srtt + time.Duration(e.k*float64(e.rttvar)))
}

func (e *MeanRTTEstimator) Backoff() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.rto = e.clamp(2 * e.rto)
}

func (e *MeanRTTEstimator) clamp(rto time.Duration) time.Duration {
	return min(max(rto, e.minRTO), e.maxRTO)
}
