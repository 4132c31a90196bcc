package congestion_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/named-data/ndnplay/std/object/congestion"
	"github.com/stretchr/testify/require"
)

func TestMeanRTTEstimator(t *testing.T) {
	e := congestion.NewMeanRTTEstimator()
	require.Equal(t, time.Second, e.RTO())
	require.Equal(t, time.Duration(0), e.EstimatedRTT())

	e.AddMeasurement(100*time.Millisecond, false)
	require.Equal(t, 100*time.Millisecond, e.EstimatedRTT())
	require.Equal(t, 50*time.Millisecond, e.DeviationRTT())
	require.Equal(t, 300*time.Millisecond, e.RTO())

	// Karn: retransmitted samples are ignored
	e.AddMeasurement(5*time.Second, true)
	require.Equal(t, 100*time.Millisecond, e.EstimatedRTT())

	e.AddMeasurement(180*time.Millisecond, false)
	// rttvar = 3/4*50 + 1/4*80 = 57.5ms, srtt = 7/8*100 + 1/8*180 = 110ms
	require.Equal(t, 110*time.Millisecond, e.EstimatedRTT())
	require.Equal(t, 57500*time.Microsecond, e.DeviationRTT())
	require.Equal(t, 340*time.Millisecond, e.RTO())

	e.Backoff()
	require.Equal(t, 680*time.Millisecond, e.RTO())
	for i := 0; i < 10; i++ {
		e.Backoff()
	}
	require.Equal(t, congestion.DefaultMaxRTO, e.RTO())
}

func TestMeanRTTEstimatorMinRTO(t *testing.T) {
	e := congestion.NewMeanRTTEstimator()
	e.AddMeasurement(2*time.Millisecond, false)
	require.Equal(t, congestion.DefaultMinRTO, e.RTO())
}

func TestAIMDWindow(t *testing.T) {
	cw := congestion.NewAIMDCongestionWindow(2)
	require.Equal(t, 2, cw.Size())

	cw.HandleSignal(congestion.SigData)
	cw.HandleSignal(congestion.SigData)
	require.Equal(t, 4, cw.Size())

	cw.HandleSignal(congestion.SigLoss)
	require.Equal(t, 2, cw.Size())

	// congestion avoidance: ssthresh is 2 now, growth is 1/window per signal
	cw.HandleSignal(congestion.SigData)
	cw.HandleSignal(congestion.SigData)
	require.Equal(t, 2, cw.Size())
	cw.HandleSignal(congestion.SigData)
	require.Equal(t, 3, cw.Size())
}

func TestCUBICWindow(t *testing.T) {
	clk := clock.NewMock()
	cw := congestion.NewCUBICCongestionWindowWithClock(10, congestion.NewMeanRTTEstimator(), clk)

	cw.HandleSignal(congestion.SigData)
	require.Equal(t, 11, cw.Size())

	cw.HandleSignal(congestion.SigCongest)
	require.Equal(t, 7, cw.Size())

	// window does not shrink in congestion avoidance and grows with time
	before := cw.Size()
	cw.HandleSignal(congestion.SigData)
	require.GreaterOrEqual(t, cw.Size(), before)
	clk.Add(10 * time.Second)
	for i := 0; i < 20; i++ {
		cw.HandleSignal(congestion.SigData)
	}
	require.Greater(t, cw.Size(), before)
}

func TestFixedWindowAndFactory(t *testing.T) {
	cw, err := congestion.NewCongestionWindow("fixed", 8, nil)
	require.NoError(t, err)
	cw.HandleSignal(congestion.SigData)
	cw.HandleSignal(congestion.SigLoss)
	require.Equal(t, 8, cw.Size())

	cw, err = congestion.NewCongestionWindow("", 4, nil)
	require.NoError(t, err)
	require.Equal(t, "cubic-congestion-window", cw.String())

	_, err = congestion.NewCongestionWindow("bbr", 4, nil)
	require.Error(t, err)
	_, err = congestion.NewCongestionWindow("aimd", 0, nil)
	require.Error(t, err)
}
