package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID        int64     `bun:"id,pk"`
	Name      string    `bun:"name,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenSqliteCreatesTables(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{Driver: DriverSqlite, SqlitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateTables(ctx, db, (*widget)(nil)))
	// running twice is harmless
	require.NoError(t, CreateTables(ctx, db, (*widget)(nil)))
	require.NoError(t, CreateIndexes(ctx, db, "CREATE INDEX IF NOT EXISTS idx_widgets_created_at ON widgets(created_at)"))

	w := &widget{ID: 7, Name: "sprocket", CreatedAt: time.Now().UTC()}
	_, err = db.NewInsert().Model(w).Exec(ctx)
	require.NoError(t, err)

	var got widget
	require.NoError(t, db.NewSelect().Model(&got).Where("name = ?", "sprocket").Scan(ctx))
	assert.Equal(t, "sprocket", got.Name)
	assert.Equal(t, int64(7), got.ID)
}

func TestCreateIndexesReportsStatement(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	err = CreateIndexes(ctx, db, "CREATE INDEX idx_nothing ON nowhere(id)")
	assert.ErrorContains(t, err, "idx_nothing")
}

func TestQueryHookLogs(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)

	db, err := Open(ctx, Options{Driver: DriverSqlite, SqlitePath: ":memory:", Logger: zap.New(core)})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateTables(ctx, db, (*widget)(nil)))
	executed := logs.FilterMessage("query executed").All()
	require.NotEmpty(t, executed)
	assert.Equal(t, "bun", executed[0].LoggerName)
	assert.Contains(t, executed[0].ContextMap()["query"], "CREATE TABLE")

	_, err = db.ExecContext(ctx, "DELETE FROM missing_table")
	require.Error(t, err)

	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
}
