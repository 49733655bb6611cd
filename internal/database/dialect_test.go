package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite untouched", SQLite, "SELECT * FROM users WHERE id = ? AND role = ?", "SELECT * FROM users WHERE id = ? AND role = ?"},
		{"postgres numbered", Postgres, "SELECT * FROM users WHERE id = ? AND role = ?", "SELECT * FROM users WHERE id = $1 AND role = $2"},
		{"postgres without args", Postgres, "SELECT 1", "SELECT 1"},
		{"postgres in clause", Postgres, "DELETE FROM rooms WHERE id IN (?, ?, ?)", "DELETE FROM rooms WHERE id IN ($1, $2, $3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.Rebind(tt.query))
		})
	}
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, "", SQLite.ForUpdate())
	assert.Equal(t, " FOR UPDATE", Postgres.ForUpdate())
}

func TestPgxMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/quiz", PgxMigrateURL("postgres://u:p@db:5432/quiz"))
	assert.Equal(t, "pgx5://u:p@db/quiz?sslmode=disable", PgxMigrateURL("postgresql://u:p@db/quiz?sslmode=disable"))
	assert.Equal(t, "pgx5://already", PgxMigrateURL("pgx5://already"))
}
