package fetch

import (
	"time"

	"github.com/named-data/ndnplay/std/log"
)

type SampleKind int

const (
	SampleSuccess SampleKind = iota
	SampleFailure
)

func (k SampleKind) String() string {
	if k == SampleSuccess {
		return "success"
	}
	return "failure"
}

// Sample is one telemetry record of a fetch.
// Duration, SRTT, RTO and Window are only set on success; Error on failure.
type Sample struct {
	Kind     SampleKind
	Name     string
	Class    RequestClass
	Duration time.Duration
	SRTT     time.Duration
	RTO      time.Duration
	Window   int
	Error    string
	// Cached is set for objects served from the store
	Cached bool
}

// TelemetrySink receives samples. Record must not block.
type TelemetrySink interface {
	Record(sample Sample)
}

// SinkFunc adapts a function to a TelemetrySink.
type SinkFunc func(sample Sample)

func (f SinkFunc) Record(sample Sample) {
	f(sample)
}

// MultiSink records to every sink in order.
type MultiSink []TelemetrySink

func (m MultiSink) Record(sample Sample) {
	for _, sink := range m {
		record(sink, sample)
	}
}

// LogSink writes samples to the default logger.
type LogSink struct{}

func (LogSink) String() string {
	return "telemetry"
}

func (s LogSink) Record(sample Sample) {
	switch sample.Kind {
	case SampleSuccess:
		log.Info(s, "Fetched", "name", sample.Name, "class", sample.Class,
			"duration", sample.Duration, "srtt", sample.SRTT, "rto", sample.RTO, "cwnd", sample.Window)
	default:
		log.Info(s, "Fetch error", "name", sample.Name, "class", sample.Class, "err", sample.Error)
	}
}

type sinkTag struct{}

func (sinkTag) String() string {
	return "telemetry-sink"
}

// record delivers a sample, recovering from panics in the sink.
func record(sink TelemetrySink, sample Sample) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn(sinkTag{}, "Telemetry sink panicked", "name", sample.Name, "panic", r)
		}
	}()
	sink.Record(sample)
}
