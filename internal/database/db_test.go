package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	t.Run("CreatesTables", func(t *testing.T) {
		for _, table := range []string{"meal_plans", "shopping_lists", "shopping_list_items", "execution_metrics", "telegram_sessions"} {
			var name string
			err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
			require.NoError(t, err, "Expected table %s to exist", table)
			assert.Equal(t, table, name)
		}
	})

	t.Run("MigrationsAreIdempotent", func(t *testing.T) {
		require.NoError(t, RunMigrations(path, zap.NewNop()))
	})

	t.Run("WithTxRollsBack", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO meal_plans (id, user_id, plan_json, created_at) VALUES ('p1', 'u1', '{}', CURRENT_TIMESTAMP)`)
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.SQL.QueryRow(`SELECT COUNT(*) FROM meal_plans`).Scan(&n))
		assert.Equal(t, 0, n)
	})
}
