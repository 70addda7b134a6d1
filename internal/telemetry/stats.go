// Package telemetry tracks per-session visit counters and timing for the
// spatial filter.
package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Stats holds the running counters of one filter session. It is owned by
// the single traversal goroutine; no locking.
type Stats struct {
	visited   int64
	matched   int64
	startedAt time.Time
	metrics   *Metrics
}

// NewStats creates session counters. metrics may be nil.
func NewStats(metrics *Metrics) *Stats {
	return &Stats{metrics: metrics}
}

// Visit records one visited object. The session clock starts at the
// first visit, not at init, so the rate reflects traversal time only.
func (s *Stats) Visit() int64 {
	if s.visited == 0 {
		s.startedAt = time.Now()
	}
	s.visited++
	if s.metrics != nil {
		s.metrics.ObjectsVisited.Inc()
	}
	return s.visited
}

// Match records one matched blob.
func (s *Stats) Match() {
	s.matched++
	if s.metrics != nil {
		s.metrics.ObjectsMatched.Inc()
	}
}

// ObserveLookup records the duration of one index lookup.
func (s *Stats) ObserveLookup(d time.Duration) {
	if s.metrics != nil {
		s.metrics.LookupDuration.Observe(d.Seconds())
	}
}

// Visited returns the number of visited objects.
func (s *Stats) Visited() int64 { return s.visited }

// Matched returns the number of matched blobs.
func (s *Stats) Matched() int64 { return s.matched }

// Elapsed returns the time since the first visit, or zero before it.
func (s *Stats) Elapsed() time.Duration {
	if s.visited == 0 {
		return 0
	}
	return time.Since(s.startedAt)
}

// Rate returns visited objects per second over the elapsed time.
func (s *Stats) Rate() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.visited) / elapsed
}

// LogSummary emits the final session counters.
func (s *Stats) LogSummary(log zerolog.Logger) {
	log.Info().
		Int64("count", s.visited).
		Int64("matched", s.matched).
		Dur("elapsed", s.Elapsed()).
		Float64("rate_per_sec", s.Rate()).
		Msg("session finished")
}
