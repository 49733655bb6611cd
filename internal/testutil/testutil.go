// Package testutil builds migrated throwaway stores for tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/seeds"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Epoch is a fixed wall clock for deterministic tests.
var Epoch = time.Unix(1_750_000_000, 0)

// Clock is a settable time source.
type Clock struct {
	now atomic.Int64
}

// NewClock starts at Epoch.
func NewClock() *Clock {
	c := &Clock{}
	c.now.Store(Epoch.Unix())
	return c
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return time.Unix(c.now.Load(), 0) }

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) { c.now.Add(int64(d / time.Second)) }

// NewDB creates a migrated SQLite store in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quiz.db")
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: path}
	require.NoError(t, database.Migrate(cfg, zerolog.Nop()))

	db, err := database.OpenSQLite(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedDemoBank inserts the embedded question bank and returns its size.
func SeedDemoBank(t testing.TB, db *database.DB) int {
	t.Helper()

	bank, err := seeds.Demo()
	require.NoError(t, err)

	repo := repository.NewQuestionRepository(db)
	for _, q := range bank.Questions {
		options, err := json.Marshal(q.Options)
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), &model.Question{
			Text:          q.Text,
			Options:       options,
			CorrectOption: q.Correct,
			Difficulty:    model.Difficulty(strings.ToUpper(q.Difficulty)),
			Topic:         q.Topic,
			CreatedAt:     Epoch.Unix(),
		}))
	}
	return len(bank.Questions)
}

// AddQuestions inserts n questions of one difficulty whose correct option
// is always "A".
func AddQuestions(t testing.TB, db *database.DB, d model.Difficulty, topic string, n int) []int64 {
	t.Helper()

	repo := repository.NewQuestionRepository(db)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		q := &model.Question{
			Text:          fmt.Sprintf("%s question %d", d, i+1),
			Options:       json.RawMessage(`{"A":"right","B":"wrong"}`),
			CorrectOption: "A",
			Difficulty:    d,
			Topic:         topic,
			CreatedAt:     Epoch.Unix(),
		}
		require.NoError(t, repo.Create(context.Background(), q))
		ids = append(ids, q.ID)
	}
	return ids
}

// CreateUser inserts an account with password "secret" and returns its ID.
func CreateUser(t testing.TB, db *database.DB, username string, role model.Role) int64 {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &model.User{
		Username:  username,
		PassHash:  string(hash),
		Role:      role,
		FullName:  strings.ToUpper(username[:1]) + username[1:],
		CreatedAt: Epoch.Unix(),
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
	return u.ID
}
