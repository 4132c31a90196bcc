package congestion

import (
	"math"
	"sync"

	"github.com/named-data/ndnplay/std/log"
)

// AIMDCongestionWindow is an implementation of CongestionWindow using Additive Increase Multiplicative Decrease algorithm
type AIMDCongestionWindow struct {
	mutex sync.RWMutex

	window float64 // float64 to allow fractional growth in congestion avoidance

	initCwnd    float64 // initial window size
	ssthresh    float64 // slow start threshold
	minSsthresh float64 // minimum slow start threshold
	aiStep      float64 // additive increase step
	mdCoef      float64 // multiplicative decrease coefficient
	resetCwnd   bool    // whether to reset cwnd after decrease
}

func NewAIMDCongestionWindow(cwnd int) *AIMDCongestionWindow {
	return &AIMDCongestionWindow{
		window: float64(cwnd),

		initCwnd:    float64(cwnd),
		ssthresh:    math.MaxFloat64,
		minSsthresh: 2.0,
		aiStep:      1.0,
		mdCoef:      0.5,
	}
}

// log identifier
func (cw *AIMDCongestionWindow) String() string {
	return "aimd-congestion-window"
}

func (cw *AIMDCongestionWindow) Size() int {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()

	return int(cw.window)
}

func (cw *AIMDCongestionWindow) IncreaseWindow() {
	cw.mutex.Lock()
	if cw.window < cw.ssthresh {
		cw.window += cw.aiStep // slow start
	} else {
		cw.window += cw.aiStep / cw.window // congestion avoidance
	}
	window := cw.window
	cw.mutex.Unlock()

	log.Trace(cw, "Window size changes", "window", window)
}

func (cw *AIMDCongestionWindow) DecreaseWindow() {
	cw.mutex.Lock()
	cw.ssthresh = math.Max(cw.window*cw.mdCoef, cw.minSsthresh)
	if cw.resetCwnd {
		cw.window = cw.initCwnd
	} else {
		cw.window = cw.ssthresh
	}
	window := cw.window
	cw.mutex.Unlock()

	log.Debug(cw, "Window size changes", "window", window)
}

func (cw *AIMDCongestionWindow) HandleSignal(signal CongestionSignal) {
	switch signal {
	case SigData:
		cw.IncreaseWindow()
	case SigLoss, SigCongest:
		cw.DecreaseWindow()
	}
}
