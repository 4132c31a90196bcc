package congestion

// FixedCongestionWindow keeps the window at its initial size regardless of signals.
type FixedCongestionWindow struct {
	window int
}

func NewFixedCongestionWindow(cwnd int) *FixedCongestionWindow {
	return &FixedCongestionWindow{window: cwnd}
}

// log identifier
func (cw *FixedCongestionWindow) String() string {
	return "fixed-congestion-window"
}

func (cw *FixedCongestionWindow) Size() int {
	return cw.window
}

func (cw *FixedCongestionWindow) IncreaseWindow() {}

func (cw *FixedCongestionWindow) DecreaseWindow() {}

func (cw *FixedCongestionWindow) HandleSignal(CongestionSignal) {}
