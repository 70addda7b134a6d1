// Package index bridges the filter to the persisted spatial index: it
// opens the read-only store, picks the matching query strategy for the
// schema it finds, and answers per-object membership lookups.
package index

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/terravc/terravc/internal/config"
	"github.com/terravc/terravc/internal/errors"
	"github.com/terravc/terravc/internal/geo"
	"github.com/terravc/terravc/pkg/types"
)

// Decision is the outcome of a membership lookup. Lookup failures are
// reported as errors, not decisions: they abort the pass.
type Decision int

const (
	// DecisionMatch includes the object in the traversal result.
	DecisionMatch Decision = iota
	// DecisionNotMatched omits the object from the traversal result.
	DecisionNotMatched
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecisionMatch:
		return "match"
	case DecisionNotMatched:
		return "not-matched"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Matcher decides membership for one object identity given the session's
// spatial query. A Matcher belongs to exactly one session and must not be
// shared: its prepared statement is reset and rebound between lookups.
type Matcher interface {
	// Match looks up one object identity. Any engine failure during
	// bind or execution is a lookup error and fatal to the whole pass.
	Match(ctx context.Context, id types.ObjectID) (Decision, error)

	// Strategy names the query strategy for logging.
	Strategy() string

	// Close releases the prepared statement and the index handle.
	Close() error
}

// Open opens the spatial index under the repository metadata directory
// and prepares the session's reusable lookup.
//
// A missing or unopenable index file is not an error: Open logs a
// warning and returns (nil, nil), and the caller must treat every blob
// as matching for the whole session. A present index whose schema or
// statement preparation fails returns a fatal error.
func Open(ctx context.Context, gitDir string, rect geo.Rect, cfg *config.Config, log zerolog.Logger) (Matcher, error) {
	path := cfg.IndexPath(gitDir)

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		log.Warn().Str("path", path).Err(err).
			Msg("spatial index not available for this repository - no objects will be omitted")
		return nil, nil
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		log.Warn().Str("path", path).Err(err).
			Msg("spatial index not available for this repository - no objects will be omitted")
		return nil, nil
	}

	// The temp scratch table and the persistent prepared statement must
	// live on the same SQLite connection for the session's lifetime.
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, errors.NewIndexError(errors.CodePrepareFailed, "acquiring index connection", err)
	}

	schema, err := sniffSchema(ctx, conn)
	if err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}

	switch schema {
	case schemaCells:
		m, err := newCellMatcher(ctx, db, conn, rect, cfg, log)
		if err != nil {
			conn.Close()
			db.Close()
			return nil, err
		}
		return m, nil
	case schemaEnvelopes:
		m, err := newEnvelopeMatcher(ctx, db, conn, rect, log)
		if err != nil {
			conn.Close()
			db.Close()
			return nil, err
		}
		return m, nil
	default:
		conn.Close()
		db.Close()
		log.Warn().Str("path", path).
			Msg("spatial index has no recognized schema - no objects will be omitted")
		return nil, nil
	}
}

type indexSchema int

const (
	schemaUnknown indexSchema = iota
	schemaCells
	schemaEnvelopes
)

// sniffSchema inspects sqlite_master to decide which query strategy the
// on-disk index supports: a blob_cells table means the cell-covering
// join, a blobs table with envelope columns means direct envelope
// overlap.
func sniffSchema(ctx context.Context, conn *sql.Conn) (indexSchema, error) {
	var hasBlobs, hasBlobCells bool
	rows, err := conn.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name IN ('blobs','blob_cells')")
	if err != nil {
		return schemaUnknown, errors.NewIndexError(errors.CodePrepareFailed, "inspecting index schema", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return schemaUnknown, errors.NewIndexError(errors.CodePrepareFailed, "inspecting index schema", err)
		}
		switch name {
		case "blobs":
			hasBlobs = true
		case "blob_cells":
			hasBlobCells = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return schemaUnknown, errors.NewIndexError(errors.CodePrepareFailed, "inspecting index schema", err)
	}

	if hasBlobs && hasBlobCells {
		return schemaCells, nil
	}
	if !hasBlobs {
		return schemaUnknown, nil
	}

	var envelopeCols int
	err = conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info('blobs') WHERE name IN ('w','s','e','n')").
		Scan(&envelopeCols)
	if err != nil {
		return schemaUnknown, errors.NewIndexError(errors.CodePrepareFailed, "inspecting index schema", err)
	}
	if envelopeCols == 4 {
		return schemaEnvelopes, nil
	}
	return schemaUnknown, nil
}
