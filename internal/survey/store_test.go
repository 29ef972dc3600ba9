package survey

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar-metallicity/pasm/internal/observation"
	"github.com/stellar-metallicity/pasm/internal/timeutil"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func mags(u, g, r, i, z float64) (pu, pg, pr, pi, pz *float64) {
	return &u, &g, &r, &i, &z
}

func photo(id int64, typ, mode int, u, g, r, i, z float64) PhotoObj {
	p := PhotoObj{ObjID: id, Type: typ, Mode: mode}
	p.U, p.G, p.R, p.I, p.Z = mags(u, g, r, i, z)
	return p
}

func seedMirror(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	missingZ := photo(7, TypeStar, ModePrimary, 19, 18, 17.5, 17.2, 0)
	missingZ.Z = nil

	require.NoError(t, s.InsertPhotoObj(ctx, []PhotoObj{
		photo(1, TypeStar, ModePrimary, 19.5, 18.25, 17.75, 17.5, 17.375), // kept
		photo(2, TypeStar, ModePrimary, 20, 19, 18.5, 18.25, 18),          // kept
		photo(3, 3, ModePrimary, 21, 20, 19, 18, 17),                      // galaxy
		photo(4, TypeStar, 2, 19, 18, 17, 16, 15),                         // secondary detection
		photo(5, TypeStar, ModePrimary, 18, 17, 16, 15, 14),               // flagged spectrum
		photo(6, TypeStar, ModePrimary, 18, 17, 16, 15, 14),               // no [Fe/H]
		missingZ,
		photo(8, TypeStar, ModePrimary, 18, 17, 16, 15, 14), // no spectrum at all
	}))

	require.NoError(t, s.InsertSppParams(ctx, []SppParams{
		{SpecObjID: 101, BestObjID: 1, FeHAdop: -1.25, Flag: FlagClean},
		{SpecObjID: 102, BestObjID: 2, FeHAdop: -0.5, Flag: FlagClean},
		{SpecObjID: 103, BestObjID: 3, FeHAdop: -1, Flag: FlagClean},
		{SpecObjID: 104, BestObjID: 4, FeHAdop: -1, Flag: FlagClean},
		{SpecObjID: 105, BestObjID: 5, FeHAdop: -1, Flag: "nnnDn"},
		{SpecObjID: 106, BestObjID: 6, FeHAdop: NoValue, Flag: FlagClean},
		{SpecObjID: 107, BestObjID: 7, FeHAdop: -2, Flag: FlagClean},
	}))
}

func TestNewStore_AppliesMigrations(t *testing.T) {
	s := setupTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)

	latest, err := LatestMigration()
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.Equal(t, uint(2), latest)

	// Re-running is a no-op.
	assert.NoError(t, s.MigrateUp())
}

func TestOpenStore_LeavesSchemaAlone(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer s.Close()

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	_, err = s.Extract(context.Background(), "")
	assert.Error(t, err, "extraction needs the schema")
}

func TestMigrateDownAndUp(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.MigrateDown())
	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var count int
	err = s.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='extraction_runs'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, s.MigrateUp())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestExtract_AppliesFilters(t *testing.T) {
	s := setupTestStore(t)
	seedMirror(t, s)

	ext, err := s.Extract(context.Background(), "segue.csv")
	require.NoError(t, err)

	want := []observation.Observation{
		{UG: 1.25, GR: 0.5, RI: 0.25, IZ: 0.125, FeH: -1.25},
		{UG: 1, GR: 0.5, RI: 0.25, IZ: 0.25, FeH: -0.5},
	}
	if diff := cmp.Diff(want, ext.Observations, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}

	_, err = uuid.Parse(ext.RunID)
	assert.NoError(t, err, "run id should be a uuid")
	assert.False(t, ext.FinishedAt.Before(ext.StartedAt))
}

func TestExtract_RecordsRuns(t *testing.T) {
	s := setupTestStore(t)
	seedMirror(t, s)
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	clock.Step = time.Second
	s.Clock = clock

	first, err := s.Extract(ctx, "")
	require.NoError(t, err)
	second, err := s.Extract(ctx, "out/segue.csv")
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.True(t, first.StartedAt.Equal(start))
	assert.True(t, first.FinishedAt.Equal(start.Add(time.Second)))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second.RunID, runs[0].RunID, "newest first")
	assert.Equal(t, "out/segue.csv", runs[0].OutputPath)
	assert.Equal(t, first.RunID, runs[1].RunID)
	assert.Equal(t, "", runs[1].OutputPath)
	assert.Equal(t, 2, runs[1].RowCount)
	assert.True(t, runs[1].StartedAt.Equal(start))
}

func TestExtract_EmptyMirror(t *testing.T) {
	s := setupTestStore(t)

	ext, err := s.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, ext.Observations)
}

func TestInsert_Upserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPhotoObj(ctx, []PhotoObj{photo(1, TypeStar, ModePrimary, 20, 19, 18, 17, 16)}))
	require.NoError(t, s.InsertPhotoObj(ctx, []PhotoObj{photo(1, TypeStar, ModePrimary, 21, 19, 18, 17, 16)}))
	require.NoError(t, s.InsertSppParams(ctx, []SppParams{{SpecObjID: 9, BestObjID: 1, FeHAdop: -1, Flag: FlagClean}}))

	ext, err := s.Extract(ctx, "")
	require.NoError(t, err)
	require.Len(t, ext.Observations, 1)
	assert.InDelta(t, 2.0, ext.Observations[0].UG, 1e-9)
}

func TestInsert_CanceledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.InsertPhotoObj(ctx, []PhotoObj{photo(1, TypeStar, ModePrimary, 20, 19, 18, 17, 16)})
	assert.Error(t, err)
}

func TestCasJobsQuery_Documented(t *testing.T) {
	q := strings.ToLower(CasJobsQuery)
	for _, fragment := range []string{
		"psfmag_u - p.psfmag_g as ug",
		"psfmag_g - p.psfmag_r as gr",
		"psfmag_r - p.psfmag_i as ri",
		"psfmag_i - p.psfmag_z as iz",
		"fehadop",
		"join sppparams",
		"p.type = 6",
		"p.mode = 1",
		"'nnnnn'",
	} {
		assert.Contains(t, q, fragment)
	}
}
