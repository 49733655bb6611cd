package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countUsers(t *testing.T, db *database.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&n))
	return n
}

func insertUser(ctx context.Context, q database.Querier, name string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO users (username, pass_hash, role, created_at) VALUES (?, 'x', 'STUDENT', 0)`, name)
	return err
}

func TestWithTxCommits(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *database.Tx) error {
		if err := insertUser(ctx, tx, "ann"); err != nil {
			return err
		}
		return insertUser(ctx, tx, "ben")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, countUsers(t, db))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *database.Tx) error {
		require.NoError(t, insertUser(ctx, tx, "ann"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countUsers(t, db))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = db.WithTx(ctx, func(tx *database.Tx) error {
			require.NoError(t, insertUser(ctx, tx, "ann"))
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, countUsers(t, db))
}

func TestIsUniqueViolation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, insertUser(ctx, db, "ann"))
	err := insertUser(ctx, db, "ann")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(errors.New("other")))
}

func TestMigratorUpDown(t *testing.T) {
	cfg := &config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "nested", "quiz.db"),
	}
	log := zerolog.Nop()

	m, err := database.NewMigrator(cfg, log)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// A second run is a no-op.
	require.NoError(t, m.Up())

	require.NoError(t, m.Down())
	require.NoError(t, m.Down())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(context.Background(), &config.Config{DBDriver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = database.Open(context.Background(), &config.Config{DBDriver: config.DriverPostgres}, zerolog.Nop())
	assert.Error(t, err)
}
