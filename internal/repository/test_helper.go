package repository

import (
	"testing"

	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB opens an in-memory sqlite database with every table migrated.
// The pool is capped at one connection so the database is shared by every
// query and concurrent transactions queue behind each other.
func SetupTestDB(t testing.TB) *pg.DB {
	t.Helper()
	db := setupTestGorm(t)
	return pg.New(db, db)
}

func setupTestGorm(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), pg.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))
	return db
}
