package filter

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/terravc/terravc/internal/config"
	"github.com/terravc/terravc/internal/errors"
	"github.com/terravc/terravc/internal/geo"
	"github.com/terravc/terravc/pkg/types"
)

var (
	oidX, _ = types.ObjectIDFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	oidY, _ = types.ObjectIDFromHex("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	oidZ, _ = types.ObjectIDFromHex("cccccccccccccccccccccccccccccccccccccccc")
)

const featurePath = "mydataset/.table-dataset/feature/ab/cd/abcdef"

// newSession builds a session over an envelope-schema index holding the
// given rows. With rows == nil no index file is written at all, so the
// session runs fail-open.
func newSession(t *testing.T, bounds string, rows map[string]geo.Rect) *Session {
	t.Helper()
	gitDir := t.TempDir()

	if rows != nil {
		db, err := sql.Open("sqlite3", filepath.Join(gitDir, "spatial_index.db"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(`CREATE TABLE blobs (
			blob_id BLOB NOT NULL PRIMARY KEY,
			w REAL NOT NULL, s REAL NOT NULL, e REAL NOT NULL, n REAL NOT NULL
		)`); err != nil {
			t.Fatal(err)
		}
		for hexID, env := range rows {
			id, err := types.ObjectIDFromHex(hexID)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := db.Exec("INSERT INTO blobs (blob_id, w, s, e, n) VALUES (?, ?, ?, ?, ?)",
				[]byte(id), env.W, env.S, env.E, env.N); err != nil {
				t.Fatal(err)
			}
		}
		db.Close()
	}

	s, err := Init(context.Background(), Params{
		Repo:   DirRepository(gitDir),
		Bounds: bounds,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		if !s.closed {
			s.Close()
		}
	})
	return s
}

func TestInitRejectsMalformedBounds(t *testing.T) {
	for _, bounds := range []string{"1,2,3", "", "1,2,3,4,5", "a,b,c,d", "10,91,12,95"} {
		s, err := Init(context.Background(), Params{
			Repo:   DirRepository(t.TempDir()),
			Bounds: bounds,
			Logger: zerolog.Nop(),
		})
		if err == nil {
			s.Close()
			t.Errorf("Init(%q) succeeded, want configuration error", bounds)
			continue
		}
		if errors.GetCategory(err) != errors.ErrCategoryConfig {
			t.Errorf("Init(%q) error category = %q, want CONFIG", bounds, errors.GetCategory(err))
		}
		if s != nil {
			t.Errorf("Init(%q) returned a session alongside the error", bounds)
		}
	}
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxQueryCells = 0
	_, err := Init(context.Background(), Params{
		Repo:   DirRepository(t.TempDir()),
		Bounds: "10,45,12,47",
		Config: cfg,
		Logger: zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestNonBlobSituations(t *testing.T) {
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{})

	tests := []struct {
		name      string
		situation types.Situation
		kind      types.ObjectKind
		want      types.Directive
	}{
		{"commit", types.SituationCommit, types.KindCommit, types.DirectiveShow},
		{"tag", types.SituationTag, types.KindTag, types.DirectiveShow},
		{"begin-tree", types.SituationBeginTree, types.KindTree, types.DirectiveShow},
		{"end-tree", types.SituationEndTree, types.KindTree, types.DirectiveNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Visit(context.Background(), tt.situation, types.Object{ID: oidX, Kind: tt.kind}, "", "")
			if err != nil {
				t.Fatalf("Visit: %v", err)
			}
			if got != tt.want {
				t.Errorf("Visit(%s) = %+v, want %+v", tt.situation, got, tt.want)
			}
		})
	}
}

func TestKindMismatchIsFatal(t *testing.T) {
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{})

	_, err := s.Visit(context.Background(), types.SituationBlob, types.Object{ID: oidX, Kind: types.KindTree}, featurePath, "")
	if err == nil {
		t.Fatal("expected protocol error")
	}
	if errors.GetCode(err) != errors.CodeKindMismatch {
		t.Errorf("error code = %q, want KIND_MISMATCH", errors.GetCode(err))
	}
}

func TestUnknownSituationIsFatal(t *testing.T) {
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{})

	_, err := s.Visit(context.Background(), types.Situation(42), types.Object{ID: oidX, Kind: types.KindBlob}, "", "")
	if err == nil {
		t.Fatal("expected protocol error")
	}
	if errors.GetCode(err) != errors.CodeUnknownSituation {
		t.Errorf("error code = %q, want UNKNOWN_SITUATION", errors.GetCode(err))
	}
}

func TestBlobPathGating(t *testing.T) {
	// The index knows oidX and would reject it, but only feature paths
	// are ever looked up.
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{
		oidX.Hex(): {W: 20, S: 20, E: 21, N: 21},
	})

	paths := []string{
		"README.md",
		"mydataset/.table-dataset/meta/schema.json",
		"mydataset/feature/no-marker-here",
	}
	for _, path := range paths {
		got, err := s.Visit(context.Background(), types.SituationBlob, types.Object{ID: oidX, Kind: types.KindBlob}, path, "")
		if err != nil {
			t.Fatalf("Visit(%q): %v", path, err)
		}
		if got != types.DirectiveShow {
			t.Errorf("Visit(%q) = %+v, want show", path, got)
		}
	}
}

func TestBlobFailOpenWithoutIndex(t *testing.T) {
	s := newSession(t, "10,45,12,47", nil)
	if !s.FailOpen() {
		t.Fatal("session without index should be fail-open")
	}

	for i := 0; i < 10; i++ {
		got, err := s.Visit(context.Background(), types.SituationBlob, types.Object{ID: oidY, Kind: types.KindBlob}, featurePath, "")
		if err != nil {
			t.Fatalf("Visit: %v", err)
		}
		if got.Omit {
			t.Fatal("fail-open session must never omit an object")
		}
		if got != types.DirectiveShow {
			t.Errorf("Visit = %+v, want show", got)
		}
	}
}

func TestBlobSpatialDecision(t *testing.T) {
	// Rectangle 10,45,12,47 (west,south,east,north). Object X overlaps
	// on both axes, object Y on neither, object Z is not indexed.
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{
		oidX.Hex(): {W: 11, S: 46, E: 13, N: 48},
		oidY.Hex(): {W: 20, S: 20, E: 21, N: 21},
	})
	if s.FailOpen() {
		t.Fatal("session should have an index")
	}

	tests := []struct {
		name string
		id   types.ObjectID
		want types.Directive
	}{
		{"overlapping envelope shown", oidX, types.DirectiveShow},
		{"disjoint envelope omitted", oidY, types.DirectiveOmit},
		{"un-indexed blob shown", oidZ, types.DirectiveShow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Visit(context.Background(), types.SituationBlob, types.Object{ID: tt.id, Kind: types.KindBlob}, featurePath, "")
			if err != nil {
				t.Fatalf("Visit: %v", err)
			}
			if got != tt.want {
				t.Errorf("Visit(%s) = %+v, want %+v", tt.id.Hex(), got, tt.want)
			}
		})
	}
}

func TestCounters(t *testing.T) {
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{
		oidX.Hex(): {W: 11, S: 46, E: 13, N: 48},
		oidY.Hex(): {W: 20, S: 20, E: 21, N: 21},
	})

	visits := []struct {
		situation types.Situation
		obj       types.Object
		path      string
	}{
		{types.SituationCommit, types.Object{ID: oidX, Kind: types.KindCommit}, ""},
		{types.SituationBeginTree, types.Object{ID: oidX, Kind: types.KindTree}, "mydataset"},
		{types.SituationBlob, types.Object{ID: oidX, Kind: types.KindBlob}, featurePath},
		{types.SituationBlob, types.Object{ID: oidY, Kind: types.KindBlob}, featurePath},
		{types.SituationBlob, types.Object{ID: oidX, Kind: types.KindBlob}, "README.md"},
		{types.SituationEndTree, types.Object{ID: oidX, Kind: types.KindTree}, "mydataset"},
	}
	for _, v := range visits {
		if _, err := s.Visit(context.Background(), v.situation, v.obj, v.path, ""); err != nil {
			t.Fatalf("Visit: %v", err)
		}
	}

	if got := s.Stats().Visited(); got != int64(len(visits)) {
		t.Errorf("Visited = %d, want %d", got, len(visits))
	}
	// Only the in-bounds feature lookup counts as a match.
	if got := s.Stats().Matched(); got != 1 {
		t.Errorf("Matched = %d, want 1", got)
	}
}

func TestCloseExactlyOnce(t *testing.T) {
	s := newSession(t, "10,45,12,47", map[string]geo.Rect{})

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err == nil {
		t.Error("second Close should fail")
	}
	if _, err := s.Visit(context.Background(), types.SituationCommit, types.Object{ID: oidX, Kind: types.KindCommit}, "", ""); err == nil {
		t.Error("Visit after Close should fail")
	}
}
