package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/board"
	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/fixtures"
	"github.com/tbourn/go-narrator-backend/internal/repo"
)

const fixturePath = "../fixtures/testdata/elementos.yaml"

// memDSN names a shared in-memory database. The returned handle keeps it
// alive while commands open and close their own connections.
func memDSN(t *testing.T) (string, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cli_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repo.OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return dsn, db
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seededSession loads the fixture and opens a session on the intro scene.
func seededSession(t *testing.T, db *gorm.DB) *domain.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.AutoMigrate(db))
	f, err := fixtures.Load(fixturePath)
	require.NoError(t, err)
	_, err = (&fixtures.Seeder{DB: db, Log: zerolog.Nop(), Env: func(string) string { return "" }}).Seed(ctx, f)
	require.NoError(t, err)

	scenes, err := repo.ListActiveScenes(ctx, db, "elementos")
	require.NoError(t, err)
	require.NotEmpty(t, scenes)
	sess := &domain.Session{GameID: "elementos", PlayerID: "ana", Status: domain.SessionActive, CurrentSceneID: &scenes[0].ID}
	require.NoError(t, repo.CreateSession(ctx, db, sess))
	return sess
}

func TestMigrate_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrator.db")
	out, err := run(t, "migrate", "--driver", "sqlite", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	db, err := repo.OpenSQLite(path)
	require.NoError(t, err)
	for _, table := range []string{"games", "scenes", "game_sessions", "session_interactions", "idempotency"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	_, err := run(t, "migrate", "--driver", "oracle", "--db", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db driver")
}

func TestSeed_PrintsCountsAndSkipsOnRerun(t *testing.T) {
	dsn, _ := memDSN(t)

	out, err := run(t, "seed", fixturePath, "--db", dsn, "--driver", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "games=1 scenes=4 rules=2 llm_configs=2 rooms=1 members=2")

	out, err = run(t, "seed", fixturePath, "--db", dsn, "--driver", "sqlite", "--json")
	require.NoError(t, err)
	var res fixtures.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"elementos"}, res.SkippedGames)
	assert.Zero(t, res.Games)
}

func TestSeed_BadFixture(t *testing.T) {
	dsn, _ := memDSN(t)
	_, err := run(t, "seed", filepath.Join(t.TempDir(), "missing.yaml"), "--db", dsn, "--driver", "sqlite")
	require.Error(t, err)

	_, err = run(t, "seed", "--db", dsn)
	require.Error(t, err, "fixture argument is required")
}

func TestReplay_ReportsDrift(t *testing.T) {
	dsn, db := memDSN(t)
	sess := seededSession(t, db)

	out, err := run(t, "replay", sess.ID, "--db", dsn, "--driver", "sqlite", "--json")
	require.NoError(t, err)
	var rep ReplayReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.False(t, rep.Drift)
	assert.Equal(t, "Introdução", rep.ReplaySceneName)
	assert.Equal(t, *sess.CurrentSceneID, rep.ReplaySceneID)

	require.NoError(t, db.Model(&domain.Session{}).Where("id = ?", sess.ID).Update("current_scene_index", 3).Error)

	out, err = run(t, "replay", sess.ID, "--db", dsn, "--driver", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "drift    yes")

	_, err = run(t, "replay", sess.ID, "--db", dsn, "--driver", "sqlite", "--fail-on-drift")
	assert.ErrorIs(t, err, ErrDrift)
}

func TestReplay_UnknownSession(t *testing.T) {
	dsn, db := memDSN(t)
	require.NoError(t, repo.AutoMigrate(db))
	_, err := run(t, "replay", uuid.NewString(), "--db", dsn, "--driver", "sqlite")
	require.Error(t, err)
}

func TestBoard_DefaultsToOwner(t *testing.T) {
	dsn, db := memDSN(t)
	sess := seededSession(t, db)

	out, err := run(t, "board", sess.ID, "--db", dsn, "--driver", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, board.NoRecords)

	_, err = run(t, "board", sess.ID, "--player", "bruno", "--db", dsn, "--driver", "sqlite")
	require.Error(t, err, "another player's board is not visible")
}

func TestResolve_EnvFallbacks(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_PATH", "/tmp/from-env.db")
	t.Setenv("LOG_LEVEL", "")

	a := &app{}
	a.resolve()
	assert.Equal(t, "sqlite", a.driver)
	assert.Equal(t, "/tmp/from-env.db", a.target)
	assert.Equal(t, "info", a.logLevel)

	t.Setenv("DB_DSN", "postgres://u@h/db")
	a = &app{driver: "postgres"}
	a.resolve()
	assert.Equal(t, "postgres://u@h/db", a.target)
}
