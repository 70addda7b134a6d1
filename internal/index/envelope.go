package index

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/terravc/terravc/internal/errors"
	"github.com/terravc/terravc/internal/geo"
	"github.com/terravc/terravc/pkg/types"
)

const envelopeLookupSQL = "SELECT w, s, e, n FROM blobs WHERE blob_id=?"

// envelopeMatcher implements the direct-envelope strategy: the index
// stores one axis-aligned bounding envelope per blob, and every lookup
// runs the exact overlap test against the session rectangle.
type envelopeMatcher struct {
	db   *sql.DB
	conn *sql.Conn
	stmt *sql.Stmt
	rect geo.Rect
}

func newEnvelopeMatcher(ctx context.Context, db *sql.DB, conn *sql.Conn, rect geo.Rect, log zerolog.Logger) (*envelopeMatcher, error) {
	// Envelope comparison is plain numeric on longitude, so a rectangle
	// wrapping the antimeridian cannot be evaluated by this strategy.
	// Reject it at init rather than give wrong answers mid-pass.
	if rect.CrossesAntimeridian() {
		return nil, errors.NewIndexError(errors.CodePrepareFailed,
			"envelope index cannot evaluate a rectangle crossing the antimeridian", nil)
	}

	stmt, err := conn.PrepareContext(ctx, envelopeLookupSQL)
	if err != nil {
		return nil, errors.NewIndexError(errors.CodePrepareFailed, "preparing envelope lookup", err)
	}
	log.Debug().Msg("envelope strategy prepared")
	return &envelopeMatcher{db: db, conn: conn, stmt: stmt, rect: rect}, nil
}

func (m *envelopeMatcher) Match(ctx context.Context, id types.ObjectID) (Decision, error) {
	var env geo.Rect
	err := m.stmt.QueryRowContext(ctx, []byte(id)).Scan(&env.W, &env.S, &env.E, &env.N)
	if err == sql.ErrNoRows {
		// The object carries no envelope, so it was never indexed.
		// Fail open: un-indexed data must never be silently dropped.
		return DecisionMatch, nil
	}
	if err != nil {
		return DecisionNotMatched, errors.NewLookupError(errors.CodeQueryFailed,
			"envelope lookup for object "+id.Hex(), err)
	}

	if m.rect.Intersects(env) {
		return DecisionMatch, nil
	}
	return DecisionNotMatched, nil
}

func (m *envelopeMatcher) Strategy() string { return "envelopes" }

func (m *envelopeMatcher) Close() error {
	m.stmt.Close()
	m.conn.Close()
	return m.db.Close()
}
