package congestion

import (
	"math"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/named-data/ndnplay/std/log"
)

// CUBICCongestionWindow is an implementation of CongestionWindow using CUBIC algorithm
// ref: https://tools.ietf.org/html/rfc8312
type CUBICCongestionWindow struct {
	mutex sync.RWMutex
	clock clock.Clock

	window float64 // window size

	rttEstimator RTTEstimator // may be nil

	ssthresh        float64 // slow start threshold
	minSsthresh     float64 // minimum slow start threshold
	aiStep          float64 // additive increase step
	mdCoef          float64 // multiplicative decrease coefficient
	c               float64 // aggressiveness factor
	windowMax       float64 // window size before the last decrease
	lastWindowMax   float64
	fastConvergence bool
	tcpFriendliness bool
	lastDecrease    int64 // unix nanos of the last decrease
}

// NewCUBICCongestionWindow creates a new CUBICCongestionWindow.
// rttEstimator is the RTT estimator to use, or nil if not available.
func NewCUBICCongestionWindow(cwnd int, rttEstimator RTTEstimator) *CUBICCongestionWindow {
	return NewCUBICCongestionWindowWithClock(cwnd, rttEstimator, clock.New())
}

func NewCUBICCongestionWindowWithClock(cwnd int, rttEstimator RTTEstimator, clk clock.Clock) *CUBICCongestionWindow {
	return &CUBICCongestionWindow{
		clock:  clk,
		window: float64(cwnd),

		rttEstimator: rttEstimator,

		ssthresh:        math.MaxFloat64,
		minSsthresh:     2.0,
		aiStep:          1.0,
		mdCoef:          0.7,
		c:               0.4,
		windowMax:       float64(cwnd),
		lastWindowMax:   float64(cwnd),
		fastConvergence: true,
		lastDecrease:    clk.Now().UnixNano(),
	}
}

func (cw *CUBICCongestionWindow) String() string {
	return "cubic-congestion-window"
}

func (cw *CUBICCongestionWindow) Size() int {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()

	return int(cw.window)
}

// cubicUpdate must be called with the mutex held.
func (cw *CUBICCongestionWindow) cubicUpdate() {
	rtt := 0.0
	if cw.rttEstimator != nil {
		rtt = cw.rttEstimator.EstimatedRTT().Seconds()
	}

	t := math.Abs(float64(cw.clock.Now().UnixNano()-cw.lastDecrease)) / 1e9
	k := math.Cbrt((cw.windowMax * (1 - cw.mdCoef)) / cw.c)

	wCubic := cw.c*math.Pow(t+rtt-k, 3) + cw.windowMax

	if cw.tcpFriendliness && rtt > 0 {
		wEst := cw.windowMax*cw.mdCoef + 3*(1-cw.mdCoef)/(1+cw.mdCoef)*t/rtt
		if cw.window < wEst {
			cw.window = wEst
			return
		}
	}

	// (wCubic - window) may be negative right after a decrease; the window never shrinks here.
	cw.window += math.Max((wCubic-cw.window)/cw.window, 0)
}

func (cw *CUBICCongestionWindow) IncreaseWindow() {
	cw.mutex.Lock()
	if cw.window < cw.ssthresh {
		cw.window += cw.aiStep // slow start
	} else {
		cw.cubicUpdate()
	}
	window := cw.window
	cw.mutex.Unlock()

	log.Trace(cw, "Window size changes", "window", window)
}

func (cw *CUBICCongestionWindow) DecreaseWindow() {
	cw.mutex.Lock()

	cw.windowMax = cw.window
	if cw.windowMax < cw.lastWindowMax && cw.fastConvergence {
		cw.lastWindowMax = cw.windowMax
		cw.windowMax *= (1 + cw.mdCoef) / 2
	} else {
		cw.lastWindowMax = cw.windowMax
	}

	cw.ssthresh = math.Max(cw.window*cw.mdCoef, cw.minSsthresh)
	cw.window = math.Max(cw.window*cw.mdCoef, 1)
	cw.lastDecrease = cw.clock.Now().UnixNano()
	window := cw.window

	cw.mutex.Unlock()

	log.Debug(cw, "Window size changes", "window", window)
}

func (cw *CUBICCongestionWindow) HandleSignal(signal CongestionSignal) {
	switch signal {
	case SigData:
		cw.IncreaseWindow()
	case SigLoss, SigCongest:
		cw.DecreaseWindow()
	}
}
