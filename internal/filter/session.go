// Package filter implements the object-visitation state machine: one
// session per traversal, fed by the walker once per visited object,
// answering with traversal directives.
package filter

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/terravc/terravc/internal/config"
	"github.com/terravc/terravc/internal/errors"
	"github.com/terravc/terravc/internal/geo"
	"github.com/terravc/terravc/internal/index"
	"github.com/terravc/terravc/internal/telemetry"
	"github.com/terravc/terravc/pkg/types"
)

// Repository is the filter's view of the repository being walked.
type Repository interface {
	// GitDir returns the repository's private metadata directory, where
	// the spatial index file lives.
	GitDir() string
}

// DirRepository is a Repository rooted at a plain directory path.
type DirRepository string

// GitDir returns the directory path.
func (d DirRepository) GitDir() string { return string(d) }

// Params configures a filter session.
type Params struct {
	// Repo is the repository being walked.
	Repo Repository

	// Bounds is the filter argument string: four comma- or
	// whitespace-separated numbers in west,south,east,north order.
	Bounds string

	// Config holds the session configuration; nil means defaults.
	Config *config.Config

	// Logger receives session logs.
	Logger zerolog.Logger

	// Metrics optionally receives session counters.
	Metrics *telemetry.Metrics
}

// Session is the mutable state of one filtering pass. It is exclusively
// owned by the single traversal goroutine: one traversal, one session,
// no locking.
type Session struct {
	cfg     *config.Config
	log     zerolog.Logger
	rect    geo.Rect
	matcher index.Matcher // nil when the index is unavailable: fail open
	stats   *telemetry.Stats
	closed  bool
}

// Init parses the bounds argument, opens the spatial index, and prepares
// the session's reusable lookup. A malformed bounds string or an index
// preparation failure is fatal; a missing index merely downgrades the
// session to fail-open mode for its entire lifetime.
func Init(ctx context.Context, p Params) (*Session, error) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCategoryConfig, errors.CodeInvalidConfig, "invalid filter configuration", err)
	}

	rect, err := geo.ParseRect(p.Bounds)
	if err != nil {
		return nil, err
	}

	log := p.Logger.With().
		Str("session_id", uuid.NewString()).
		Str("bounds", rect.String()).
		Logger()

	matcher, err := index.Open(ctx, p.Repo.GitDir(), rect, cfg, log)
	if err != nil {
		return nil, err
	}

	if matcher != nil {
		log.Debug().Str("strategy", matcher.Strategy()).Msg("spatial filter session ready")
	}

	return &Session{
		cfg:     cfg,
		log:     log,
		rect:    rect,
		matcher: matcher,
		stats:   telemetry.NewStats(p.Metrics),
	}, nil
}

// Rect returns the session's query rectangle.
func (s *Session) Rect() geo.Rect { return s.rect }

// Stats returns the session counters.
func (s *Session) Stats() *telemetry.Stats { return s.stats }

// FailOpen reports whether the session runs without a spatial index,
// including every blob.
func (s *Session) FailOpen() bool { return s.matcher == nil }

// Visit classifies one visited object and returns the walker directive.
//
// Trees, commits and tags are always shown; filtering happens only at
// blobs on a feature path. A lookup failure or an object-kind/situation
// combination outside the expected set returns an error, which aborts
// the entire pass: a silently skipped filter decision could corrupt the
// derived dataset.
func (s *Session) Visit(ctx context.Context, situation types.Situation, obj types.Object, path, filename string) (types.Directive, error) {
	if s.closed {
		return types.DirectiveNone, errors.NewProtocolError(errors.CodeSessionClosed, "visit after session close")
	}

	n := s.stats.Visit()
	if s.cfg.ProgressEvery > 0 && n%int64(s.cfg.ProgressEvery) == 0 {
		s.log.Info().Int64("count", n).Msg("filtering")
	}

	switch situation {
	case types.SituationCommit:
		if err := s.expectKind(situation, obj, types.KindCommit); err != nil {
			return types.DirectiveNone, err
		}
		return types.DirectiveShow, nil

	case types.SituationTag:
		if err := s.expectKind(situation, obj, types.KindTag); err != nil {
			return types.DirectiveNone, err
		}
		return types.DirectiveShow, nil

	case types.SituationBeginTree:
		if err := s.expectKind(situation, obj, types.KindTree); err != nil {
			return types.DirectiveNone, err
		}
		// Always include all tree objects; filtering happens at blobs.
		return types.DirectiveShow, nil

	case types.SituationEndTree:
		if err := s.expectKind(situation, obj, types.KindTree); err != nil {
			return types.DirectiveNone, err
		}
		return types.DirectiveNone, nil

	case types.SituationBlob:
		if err := s.expectKind(situation, obj, types.KindBlob); err != nil {
			return types.DirectiveNone, err
		}
		return s.visitBlob(ctx, obj, path)

	default:
		return types.DirectiveNone, errors.NewProtocolError(errors.CodeUnknownSituation,
			"unknown filter situation: "+situation.String())
	}
}

func (s *Session) visitBlob(ctx context.Context, obj types.Object, path string) (types.Directive, error) {
	// Only feature data is spatially filtered; everything else matches
	// automatically.
	if !s.isFeaturePath(path) {
		return types.DirectiveShow, nil
	}

	// No valid spatial index for this repository: don't omit anything.
	if s.matcher == nil {
		return types.DirectiveShow, nil
	}

	start := time.Now()
	decision, err := s.matcher.Match(ctx, obj.ID)
	s.stats.ObserveLookup(time.Since(start))
	if err != nil {
		return types.DirectiveNone, err
	}

	switch decision {
	case index.DecisionMatch:
		s.stats.Match()
		return types.DirectiveShow, nil
	case index.DecisionNotMatched:
		return types.DirectiveOmit, nil
	default:
		return types.DirectiveNone, errors.NewInternalError("unexpected lookup decision "+decision.String(), nil)
	}
}

// Close releases the prepared statement and the index handle and emits
// the final counters. It must be called exactly once per successful
// Init.
func (s *Session) Close() error {
	if s.closed {
		return errors.NewProtocolError(errors.CodeSessionClosed, "session closed twice")
	}
	s.closed = true

	s.stats.LogSummary(s.log)

	if s.matcher != nil {
		if err := s.matcher.Close(); err != nil {
			return errors.NewInternalError("closing spatial index", err)
		}
	}
	return nil
}

func (s *Session) isFeaturePath(path string) bool {
	for _, seg := range s.cfg.FeatureSegments {
		if strings.Contains(path, seg) {
			return true
		}
	}
	return false
}

func (s *Session) expectKind(situation types.Situation, obj types.Object, want types.ObjectKind) error {
	if obj.Kind != want {
		return errors.NewProtocolError(errors.CodeKindMismatch,
			situation.String()+" situation delivered a "+obj.Kind.String()+" object")
	}
	return nil
}
