// Package testutil provides in-memory databases and redis servers for package tests.
package testutil

import (
	"testing"

	"deluxe-isa/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
// A single connection keeps every query on the same in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// NewRedis starts a miniredis server and returns a client connected to it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// SeedUser creates a progression row with the given total XP and its derived tier.
func SeedUser(t *testing.T, db *gorm.DB, userID string, totalXP int64) *models.UserProgression {
	t.Helper()

	tier := models.TierFromTotalXP(totalXP)
	prog := &models.UserProgression{
		UserID:          userID,
		TotalXP:         totalXP,
		CurrentTier:     tier,
		CurrentPeriodXP: totalXP - tier.Threshold(),
	}
	require.NoError(t, db.Create(prog).Error)
	return prog
}

// SeedPost creates a post owned by authorID with the given required tier.
func SeedPost(t *testing.T, db *gorm.DB, authorID string, required models.Tier) *models.Post {
	t.Helper()

	post := &models.Post{
		AuthorID:       authorID,
		AuthorUsername: "isa",
		Content:        "hello",
		Images:         []string{"https://cdn.example/a.jpg"},
		RequiredTier:   required,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
