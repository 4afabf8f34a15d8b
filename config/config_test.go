package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := fromEnv()
	assert.Equal(t, "spotify-clone", cfg.MinioBucket)
	assert.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 2*time.Second, cfg.Player.RestartThreshold)
	assert.Equal(t, 70, cfg.Player.DefaultVolume)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("JWT_EXPIRY", "1h")
	t.Setenv("PLAYER_RESTART_THRESHOLD", "5s")
	t.Setenv("PLAYER_DEFAULT_VOLUME", "not-a-number")

	cfg := fromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Second, cfg.Player.RestartThreshold)
	assert.Equal(t, 70, cfg.Player.DefaultVolume, "invalid values fall back to the default")
}

func TestAllowedMediaHosts(t *testing.T) {
	cfg := fromEnv()
	cfg.MinioEndpoint = "minio.internal:9000"
	assert.Empty(t, cfg.AllowedMediaHosts(), "no list means no restriction")

	t.Setenv("MEDIA_ALLOWED_HOSTS", " cdn.example.com, ,media.example.com:8443 ")
	cfg = fromEnv()
	cfg.MinioEndpoint = "minio.internal:9000"
	assert.Equal(t, []string{"cdn.example.com", "media.example.com:8443"}, cfg.MediaHosts)
	assert.Equal(t, []string{"cdn.example.com", "media.example.com:8443", "minio.internal:9000"}, cfg.AllowedMediaHosts())
}

func TestValidate(t *testing.T) {
	cfg := fromEnv()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Player.DefaultVolume = 101
	assert.Error(t, cfg.Validate())

	cfg.Player.DefaultVolume = 50
	cfg.Player.ReadyTimeout = 0
	assert.Error(t, cfg.Validate())
}

func writeEnv(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadPlayerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeEnv(t, path, "PLAYER_RESTART_THRESHOLD=3s\nPLAYER_DEFAULT_VOLUME=40\nPLAYER_PROBE_MEDIA=false\n")

	ps, err := ReadPlayerSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, ps.RestartThreshold)
	assert.Equal(t, 40, ps.DefaultVolume)
	assert.False(t, ps.ProbeMedia)
	assert.Equal(t, 15*time.Second, ps.ReadyTimeout)

	// 进程环境变量优先
	t.Setenv("PLAYER_DEFAULT_VOLUME", "90")
	ps, err = ReadPlayerSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 90, ps.DefaultVolume)
}

func TestReadPlayerSettingsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeEnv(t, path, "PLAYER_DEFAULT_VOLUME=250\n")

	_, err := ReadPlayerSettings(path)
	assert.Error(t, err)

	_, err = ReadPlayerSettings(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestWatchReloadsPlayerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeEnv(t, path, "PLAYER_DEFAULT_VOLUME=40\n")

	changes := make(chan PlayerSettings, 16)
	w, err := Watch(path, func(ps PlayerSettings) {
		select {
		case changes <- ps:
		default:
		}
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	writeEnv(t, path, "PLAYER_DEFAULT_VOLUME=55\n")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ps := <-changes:
			if ps.DefaultVolume == 55 {
				return
			}
		case <-deadline:
			t.Fatal("settings were not reloaded")
		}
	}
}
