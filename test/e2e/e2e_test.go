// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-workers/internal/common/config"
	"interview-workers/internal/common/database"
	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/interview"
	"interview-workers/internal/maintenance"
	"interview-workers/internal/notify"
)

// These tests need a real PostgreSQL and Redis. They run only when
// E2E_ENABLED=1, using configs/config.yaml plus the usual env overrides.

type env struct {
	cfg     *config.Config
	pg      *database.PostgresClient
	rdb     *database.RedisClient
	log     logger.Logger
	cleanup func()
}

func setup(t *testing.T) *env {
	t.Helper()
	if os.Getenv("E2E_ENABLED") != "1" {
		t.Skip("set E2E_ENABLED=1 to run against real PostgreSQL and Redis")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(context.Background()), "PostgreSQL ping failed")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	require.NoError(t, rdb.Ping(context.Background()), "Redis ping failed")

	createTables(t, pg.DB)

	return &env{
		cfg: cfg,
		pg:  pg,
		rdb: rdb,
		log: logger.NewTestLogger(t),
		cleanup: func() {
			rdb.Close()
			pg.Close()
		},
	}
}

// ==========================
// Database tables
// ==========================

func createTables(t *testing.T, db *sql.DB) {
	t.Helper()
	queries := []string{
		`CREATE TABLE IF NOT EXISTS empresa (
			id BIGSERIAL PRIMARY KEY,
			nome TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vaga (
			id BIGSERIAL PRIMARY KEY,
			uuid TEXT UNIQUE NOT NULL,
			titulo TEXT NOT NULL,
			empresa_id BIGINT REFERENCES empresa(id)
		)`,
		`CREATE TABLE IF NOT EXISTS candidato (
			id BIGSERIAL PRIMARY KEY,
			nome TEXT NOT NULL,
			email TEXT NOT NULL,
			telefone TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS vaga_avaliacao (
			id BIGSERIAL PRIMARY KEY,
			vaga_id BIGINT NOT NULL REFERENCES vaga(id) ON DELETE CASCADE,
			candidato_id BIGINT NOT NULL REFERENCES candidato(id),
			breakdown TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS vaga_area (vaga_id BIGINT NOT NULL, area_id BIGINT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS vaga_soft_skill (vaga_id BIGINT NOT NULL, soft_skill_id BIGINT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS vaga_favorita (vaga_id BIGINT NOT NULL, candidato_id BIGINT NOT NULL)`,
	}
	for _, q := range queries {
		_, err := db.Exec(q)
		require.NoError(t, err, q)
	}
}

type fixture struct {
	ref     interview.ApplicationRef
	vagaID  int64
	cleanup func()
}

func seedApplication(t *testing.T, db *sql.DB) fixture {
	t.Helper()
	var empresaID, vagaID, candidatoID, appID int64
	vagaUUID := uuid.NewString()

	require.NoError(t, db.QueryRow(`INSERT INTO empresa (nome) VALUES ('Acme') RETURNING id`).Scan(&empresaID))
	require.NoError(t, db.QueryRow(
		`INSERT INTO vaga (uuid, titulo, empresa_id) VALUES ($1, 'Backend Engineer', $2) RETURNING id`,
		vagaUUID, empresaID).Scan(&vagaID))
	require.NoError(t, db.QueryRow(
		`INSERT INTO candidato (nome, email) VALUES ('Maria', $1) RETURNING id`,
		fmt.Sprintf("maria+%s@example.com", vagaUUID[:8])).Scan(&candidatoID))
	require.NoError(t, db.QueryRow(
		`INSERT INTO vaga_avaliacao (vaga_id, candidato_id) VALUES ($1, $2) RETURNING id`,
		vagaID, candidatoID).Scan(&appID))

	return fixture{
		ref:    interview.ApplicationRef{ID: appID, CandidateID: candidatoID, VacancyUUID: vagaUUID},
		vagaID: vagaID,
		cleanup: func() {
			db.Exec(`DELETE FROM vaga_avaliacao WHERE id = $1`, appID)
			db.Exec(`DELETE FROM vaga WHERE id = $1`, vagaID)
			db.Exec(`DELETE FROM candidato WHERE id = $1`, candidatoID)
			db.Exec(`DELETE FROM empresa WHERE id = $1`, empresaID)
		},
	}
}

func newService(e *env, clock *time.Time) *interview.Service {
	dispatcher := notify.NewDispatcher(notify.Config{}, nil, nil, e.log)
	svc := interview.NewService(
		interview.NewRepository(e.pg.DB),
		dispatcher,
		database.NewLocker(e.rdb.Client, "e2e:"+uuid.NewString()+":"),
		interview.Config{
			VideoWindow:   7 * 24 * time.Hour,
			SweepLockTTL:  time.Minute,
			BatchSize:     100,
			PurgeReviewed: true,
		},
		e.log,
	)
	return svc.WithClock(func() time.Time { return *clock })
}

// ==========================
// Interview flow
// ==========================

func TestInterviewFlow_SubmitReviewExpire(t *testing.T) {
	e := setup(t)
	defer e.cleanup()
	ctx := context.Background()

	f := seedApplication(t, e.pg.DB)
	defer f.cleanup()

	now := time.Now().UTC()
	svc := newService(e, &now)

	req, err := svc.RequestVideo(ctx, f.ref)
	require.NoError(t, err)
	assert.True(t, req.Deadline.After(req.RequestedAt))

	_, err = svc.RequestVideo(ctx, f.ref)
	assert.True(t, apperrors.CodeOf(err) == apperrors.ErrCodeVideoAlreadyRequested)

	now = now.Add(time.Hour)
	sub, err := svc.SubmitVideo(ctx, f.ref, interview.Media{URL: "https://cdn.example.com/v.mp4", FileID: "file-1"})
	require.NoError(t, err)
	assert.True(t, sub.ExpiresAt.Equal(now.Add(7*24*time.Hour).Truncate(time.Millisecond)))

	fb, err := svc.SubmitFeedback(ctx, f.ref, "APPROVED", "Strong communication")
	require.NoError(t, err)
	assert.True(t, fb.HasVideo)
	assert.False(t, fb.MediaPurged)

	_, err = svc.SubmitFeedback(ctx, f.ref, "REJECTED", "changed my mind")
	assert.True(t, apperrors.CodeOf(err) == apperrors.ErrCodeAlreadyFeedbacked)

	// Reviewed media outlives the expiry sweep and goes with the reviewed purge.
	now = now.Add(8 * 24 * time.Hour)
	_, err = svc.ExpireSweep(ctx)
	require.NoError(t, err)
	view, err := svc.State(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, interview.PhaseReviewedKept, view.Phase)

	res, err := svc.PurgeReviewedMedia(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Purged, 1)

	view, err = svc.State(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, interview.PhaseReviewedPurged, view.Phase)
}

func TestInterviewFlow_ExpiredBeforeReview(t *testing.T) {
	e := setup(t)
	defer e.cleanup()
	ctx := context.Background()

	f := seedApplication(t, e.pg.DB)
	defer f.cleanup()

	now := time.Now().UTC()
	svc := newService(e, &now)

	_, err := svc.RequestVideo(ctx, f.ref)
	require.NoError(t, err)
	_, err = svc.SubmitVideo(ctx, f.ref, interview.Media{URL: "https://cdn.example.com/v.mp4"})
	require.NoError(t, err)

	now = now.Add(8 * 24 * time.Hour)
	res, err := svc.ExpireSweep(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Purged, 1)

	view, err := svc.State(ctx, f.ref)
	require.NoError(t, err)
	assert.Equal(t, interview.PhaseExpired, view.Phase)

	fb, err := svc.SubmitFeedback(ctx, f.ref, "REJECTED", "Did not meet requirements")
	require.NoError(t, err)
	assert.True(t, fb.HasVideo)
	assert.True(t, fb.MediaPurged)
}

func TestInterviewFlow_DeadlineMissed(t *testing.T) {
	e := setup(t)
	defer e.cleanup()
	ctx := context.Background()

	f := seedApplication(t, e.pg.DB)
	defer f.cleanup()

	now := time.Now().UTC()
	svc := newService(e, &now)

	_, err := svc.RequestVideo(ctx, f.ref)
	require.NoError(t, err)

	now = now.Add(8 * 24 * time.Hour)
	_, err = svc.SubmitVideo(ctx, f.ref, interview.Media{URL: "https://cdn.example.com/late.mp4"})
	assert.True(t, apperrors.CodeOf(err) == apperrors.ErrCodeVideoDeadlinePassed)

	overdue, err := svc.NotifyOverdue(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, overdue.Scanned, 1)

	// A lapsed request may be issued again.
	_, err = svc.RequestVideo(ctx, f.ref)
	require.NoError(t, err)
}

// ==========================
// Orphan cleanup
// ==========================

func TestOrphanCleanup(t *testing.T) {
	e := setup(t)
	defer e.cleanup()
	ctx := context.Background()

	// Drop any cascade from a previous run so orphans can be inserted.
	for _, table := range maintenance.JunctionTables {
		_, err := e.pg.DB.Exec(fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s_vaga_id_fkey_cascade`, table, table))
		require.NoError(t, err)
	}

	f := seedApplication(t, e.pg.DB)
	defer f.cleanup()
	missing := f.vagaID + 1_000_000

	for _, table := range maintenance.JunctionTables {
		_, err := e.pg.DB.Exec(fmt.Sprintf(`INSERT INTO %s VALUES ($1, 1)`, table), missing)
		require.NoError(t, err)
		_, err = e.pg.DB.Exec(fmt.Sprintf(`INSERT INTO %s VALUES ($1, 1)`, table), f.vagaID)
		require.NoError(t, err)
	}

	cleaner := maintenance.NewCleaner(e.pg.DB, e.log)

	dry, err := cleaner.DeleteOrphans(ctx, true)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, dry.Total, int64(len(maintenance.JunctionTables)))

	report, err := cleaner.DeleteOrphans(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, dry.Total, report.Total)

	again, err := cleaner.DeleteOrphans(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, again.Total)

	cascades, err := cleaner.EnforceCascades(ctx)
	require.NoError(t, err)
	assert.Len(t, append(cascades.Added, cascades.Present...), len(maintenance.JunctionTables))

	// With the cascade in place deleting a vacancy takes its links with it.
	_, err = e.pg.DB.Exec(`DELETE FROM vaga WHERE id = $1`, f.vagaID)
	require.NoError(t, err)
	for _, table := range maintenance.JunctionTables {
		var n int
		require.NoError(t, e.pg.DB.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE vaga_id = $1`, table), f.vagaID).Scan(&n))
		assert.Zero(t, n, table)
	}
}
