package cmd

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shriram-30/SpotifyClone/core/catalog"
	"github.com/shriram-30/SpotifyClone/db"
	"github.com/shriram-30/SpotifyClone/repository"
)

func TestSeedFixture(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(gdb))

	svc := catalog.NewService(
		repository.NewGormAlbumRepository(gdb),
		repository.NewGormArtistRepository(gdb),
		repository.NewGormTrendingRepository(gdb),
		nil, nil,
	)

	data, err := os.ReadFile("testdata/seed.json")
	require.NoError(t, err)
	var file seedFile
	require.NoError(t, json.Unmarshal(data, &file))

	ctx := context.Background()
	albums, artists, trending, err := seed(ctx, svc, file)
	require.NoError(t, err)
	assert.Equal(t, 1, albums)
	assert.Equal(t, 1, artists, "duplicate artist names are skipped")
	assert.Equal(t, 2, trending)

	tracks, err := svc.ArtistTracks(ctx, "Anirudh Ravichander")
	require.NoError(t, err)
	assert.Len(t, tracks, 4)

	artist, err := svc.ArtistByName(ctx, "ANIRUDH RAVICHANDER")
	require.NoError(t, err)
	assert.Equal(t, "anirudhofficial", artist.SocialLinks.Instagram)
}
