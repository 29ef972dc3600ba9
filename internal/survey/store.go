// Package survey documents the stellar extraction query and runs it against
// a local SQLite mirror of the survey's photometry and SSPP tables.
package survey

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stellar-metallicity/pasm/internal/observation"
	"github.com/stellar-metallicity/pasm/internal/timeutil"
)

// CasJobsQuery is the extraction query to submit to the remote survey
// database. It yields rows of (ug, gr, ri, iz, feh).
//
//go:embed casjobs.sql
var CasJobsQuery string

// extractSQL is CasJobsQuery rewritten for the mirror's table names.
//
//go:embed extract.sql
var extractSQL string

// Photometric object classes and detection modes used by the query.
const (
	TypeStar    = 6
	ModePrimary = 1
	// FlagClean is the SSPP flag string for a measurement with no warnings.
	FlagClean = "nnnnn"
	// NoValue is the SSPP sentinel for a missing parameter.
	NoValue = -9999
)

// Store is a local mirror of the survey tables.
type Store struct {
	*sql.DB
	// Clock stamps extraction runs.
	Clock timeutil.Clock
}

// NewStore opens (or creates) the mirror at path and brings its schema up
// to the latest migration.
func NewStore(path string) (*Store, error) {
	s, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenStore opens the mirror at path without touching its schema; the
// migrate command manages it.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open survey mirror: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &Store{DB: db, Clock: timeutil.RealClock{}}, nil
}

// PhotoObj is one row of PSF photometry.
type PhotoObj struct {
	ObjID int64
	Type  int
	Mode  int
	// PSF magnitudes; nil when the band was not measured.
	U, G, R, I, Z *float64
}

// SppParams is one SSPP measurement attached to a photometric object.
type SppParams struct {
	SpecObjID int64
	BestObjID int64
	FeHAdop   float64
	Flag      string
}

// InsertPhotoObj upserts photometry rows in a single transaction.
func (s *Store) InsertPhotoObj(ctx context.Context, rows []PhotoObj) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO photo_obj (
				objid, type, mode, psfmag_u, psfmag_g, psfmag_r, psfmag_i, psfmag_z
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare photo_obj insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.ObjID, r.Type, r.Mode,
				nullFloat64(r.U), nullFloat64(r.G), nullFloat64(r.R), nullFloat64(r.I), nullFloat64(r.Z),
			); err != nil {
				return fmt.Errorf("insert photo_obj %d: %w", r.ObjID, err)
			}
		}
		return nil
	})
}

// InsertSppParams upserts SSPP rows in a single transaction.
func (s *Store) InsertSppParams(ctx context.Context, rows []SppParams) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO spp_params (specobjid, bestobjid, feh_adop, flag)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare spp_params insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.SpecObjID, r.BestObjID, r.FeHAdop, r.Flag); err != nil {
				return fmt.Errorf("insert spp_params %d: %w", r.SpecObjID, err)
			}
		}
		return nil
	})
}

// Extraction is the result of one run of the extraction query.
type Extraction struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Observations []observation.Observation
}

// Extract runs the extraction query against the mirror and records the run.
// outputPath is stored with the run for reference and may be empty.
func (s *Store) Extract(ctx context.Context, outputPath string) (*Extraction, error) {
	ext := &Extraction{
		RunID:     uuid.New().String(),
		StartedAt: s.Clock.Now(),
	}

	rows, err := s.QueryContext(ctx, extractSQL)
	if err != nil {
		return nil, fmt.Errorf("run extraction query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o observation.Observation
		if err := rows.Scan(&o.UG, &o.GR, &o.RI, &o.IZ, &o.FeH); err != nil {
			return nil, fmt.Errorf("scan extraction row: %w", err)
		}
		ext.Observations = append(ext.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction rows: %w", err)
	}
	ext.FinishedAt = s.Clock.Now()

	_, err = s.ExecContext(ctx, `
		INSERT INTO extraction_runs (
			run_id, started_unix_nanos, finished_unix_nanos, row_count, output_path
		) VALUES (?, ?, ?, ?, ?)
	`, ext.RunID, ext.StartedAt.UnixNano(), ext.FinishedAt.UnixNano(), len(ext.Observations), nullString(outputPath))
	if err != nil {
		return nil, fmt.Errorf("record extraction run: %w", err)
	}

	log.Printf("extraction %s: %d rows in %s", ext.RunID, len(ext.Observations), ext.FinishedAt.Sub(ext.StartedAt))
	return ext, nil
}

// Run is a recorded extraction.
type Run struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	RowCount   int
	OutputPath string
}

// Runs lists recorded extractions, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT run_id, started_unix_nanos, finished_unix_nanos, row_count, output_path
		FROM extraction_runs
		ORDER BY started_unix_nanos DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query extraction runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			output            sql.NullString
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.RowCount, &output); err != nil {
			return nil, fmt.Errorf("scan extraction run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.FinishedAt = time.Unix(0, finished)
		r.OutputPath = output.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
