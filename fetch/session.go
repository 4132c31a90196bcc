package fetch

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	enc "github.com/named-data/ndnplay/std/encoding"
	cong "github.com/named-data/ndnplay/std/object/congestion"
	"github.com/named-data/ndnplay/std/types/optional"
)

// Convention is the version discovery convention of a session.
type Convention int

const (
	ConventionUnknown  Convention = iota
	ConventionNaming              // version is a name component under the prefix
	ConventionMetadata            // version is announced per object by RDR metadata
)

func (c Convention) String() string {
	switch c {
	case ConventionNaming:
		return "naming"
	case ConventionMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

const (
	DefaultEstimatedCount = 5
	DefaultCountCacheSize = 4096
	DefaultInitialWindow  = 4
)

// SessionOptions configure the adaptive state of new sessions.
type SessionOptions struct {
	// Algorithm is the congestion control algorithm (cubic, aimd or fixed).
	Algorithm      string
	InitialWindow  int
	CountCacheSize int
	Clock          clock.Clock
}

// Session is the adaptive state shared by all fetches of a playback session.
// It is safe for concurrent use.
type Session struct {
	id      uint64
	created time.Time

	mutex      sync.Mutex
	convention Convention
	version    optional.Optional[enc.Component]
	// closed when the in-flight discovery race settles
	discovering chan struct{}
	races       int

	rtt    cong.RTTEstimator
	window cong.CongestionWindow
	counts *lru.Cache[string, int]
}

func NewSession(id uint64, opts SessionOptions) (*Session, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.InitialWindow == 0 {
		opts.InitialWindow = DefaultInitialWindow
	}
	if opts.CountCacheSize == 0 {
		opts.CountCacheSize = DefaultCountCacheSize
	}

	rtt := cong.NewMeanRTTEstimator()
	var window cong.CongestionWindow
	if opts.Algorithm == "cubic" || opts.Algorithm == "" {
		if opts.InitialWindow < 1 {
			return nil, fmt.Errorf("%w: initial congestion window must be positive: %d", ErrConfig, opts.InitialWindow)
		}
		window = cong.NewCUBICCongestionWindowWithClock(opts.InitialWindow, rtt, opts.Clock)
	} else {
		var err error
		window, err = cong.NewCongestionWindow(opts.Algorithm, opts.InitialWindow, rtt)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	counts, err := lru.New[string, int](opts.CountCacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: count cache: %w", ErrConfig, err)
	}

	return &Session{
		id:      id,
		created: opts.Clock.Now(),
		rtt:     rtt,
		window:  window,
		counts:  counts,
	}, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("session (%d)", s.id)
}

func (s *Session) ID() uint64 {
	return s.id
}

func (s *Session) Created() time.Time {
	return s.created
}

func (s *Session) Convention() Convention {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.convention
}

// Version returns the cached version component. It is only set under
// the naming convention.
func (s *Session) Version() (enc.Component, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.version.Get()
}

// Races returns the number of discovery races started in this session.
func (s *Session) Races() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.races
}

// EstimatedCount returns the expected segment count of a content key.
func (s *Session) EstimatedCount(key string) int {
	if n, ok := s.counts.Get(key); ok {
		return n
	}
	return DefaultEstimatedCount
}

func (s *Session) SetEstimatedCount(key string, n int) {
	if n > 0 {
		s.counts.Add(key, n)
	}
}

func (s *Session) RTT() cong.RTTEstimator {
	return s.rtt
}

func (s *Session) Window() cong.CongestionWindow {
	return s.window
}

// settle records the convention won by a race. The first call wins.
// Must be called with the mutex held.
func (s *Session) settle(conv Convention, versioned enc.Name) {
	if s.convention != ConventionUnknown {
		return
	}
	s.convention = conv
	if conv == ConventionNaming {
		s.version = optional.Some(versioned.At(-1).Clone())
	}
}
