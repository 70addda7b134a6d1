package index

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/terravc/terravc/internal/config"
	"github.com/terravc/terravc/internal/cover"
	"github.com/terravc/terravc/internal/errors"
	"github.com/terravc/terravc/internal/geo"
	"github.com/terravc/terravc/pkg/types"
)

// cellLookupSQL joins the indexed objects, their covering cells, and the
// session's scratch table of query cells. Existence of any shared cell
// token means the object's extent may intersect the query rectangle.
const cellLookupSQL = `SELECT EXISTS(
SELECT 1
FROM blobs
INNER JOIN blob_cells ON (blobs.rowid=blob_cells.blob_rowid)
INNER JOIN _query_cells ON (blob_cells.cell_token=_query_cells.cell_token)
WHERE blobs.blob_id=?);`

// cellMatcher implements the cell-covering strategy: the query rectangle
// is decomposed into cell terms once at session init, and every lookup
// is a three-way join against them.
type cellMatcher struct {
	db   *sql.DB
	conn *sql.Conn
	stmt *sql.Stmt
}

func newCellMatcher(ctx context.Context, db *sql.DB, conn *sql.Conn, rect geo.Rect, cfg *config.Config, log zerolog.Logger) (*cellMatcher, error) {
	terms := cover.QueryTerms(rect, cover.Options{
		MaxCells: cfg.MaxQueryCells,
		MaxLevel: cfg.MaxCellLevel,
	})

	if _, err := conn.ExecContext(ctx, "PRAGMA temp_store=MEMORY"); err != nil {
		return nil, errors.NewIndexError(errors.CodePrepareFailed, "configuring temp store", err)
	}
	if _, err := conn.ExecContext(ctx,
		"CREATE TEMP TABLE _query_cells (cell_token TEXT PRIMARY KEY)"); err != nil {
		return nil, errors.NewIndexError(errors.CodePrepareFailed, "creating query-cells table", err)
	}

	ins, err := conn.PrepareContext(ctx, "INSERT INTO _query_cells VALUES (?)")
	if err != nil {
		return nil, errors.NewIndexError(errors.CodePrepareFailed, "preparing query-cells insert", err)
	}
	for _, term := range terms {
		if _, err := ins.ExecContext(ctx, cover.StripMarker(term)); err != nil {
			ins.Close()
			return nil, errors.NewIndexError(errors.CodePrepareFailed, "populating query-cells table", err)
		}
	}
	ins.Close()

	stmt, err := conn.PrepareContext(ctx, cellLookupSQL)
	if err != nil {
		return nil, errors.NewIndexError(errors.CodePrepareFailed, "preparing cell lookup", err)
	}

	log.Debug().Int("query_cells", len(terms)).Msg("cell strategy prepared")
	return &cellMatcher{db: db, conn: conn, stmt: stmt}, nil
}

func (m *cellMatcher) Match(ctx context.Context, id types.ObjectID) (Decision, error) {
	var found bool
	if err := m.stmt.QueryRowContext(ctx, []byte(id)).Scan(&found); err != nil {
		return DecisionNotMatched, errors.NewLookupError(errors.CodeQueryFailed,
			"cell lookup for object "+id.Hex(), err)
	}
	if found {
		return DecisionMatch, nil
	}
	return DecisionNotMatched, nil
}

func (m *cellMatcher) Strategy() string { return "cells" }

func (m *cellMatcher) Close() error {
	m.stmt.Close()
	m.conn.Close()
	return m.db.Close()
}
