package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr  string
	ClientURL string // CORS 允许的前端地址

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
	MediaURLTTL    time.Duration // 预签名URL有效期
	MediaHosts     []string      // 允许播放器拉取的媒体主机，为空时不限制

	JWTSecret string
	JWTExpiry time.Duration

	LogLevel string
	LogFile  string

	Player PlayerSettings

	SearchDebounce time.Duration
}

// PlayerSettings 播放器可调参数，可通过 Watch 热更新
type PlayerSettings struct {
	RestartThreshold time.Duration // 超过该播放进度时"上一首"变为重新播放
	DefaultVolume    int
	ReadyTimeout     time.Duration
	ProbeMedia       bool // 是否通过HTTP拉取媒体头部以获取时长
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList 逗号分隔的列表，忽略空项
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// AllowedMediaHosts 播放器可拉取的主机：MEDIA_ALLOWED_HOSTS 加上 MinIO 端点
func (c *Config) AllowedMediaHosts() []string {
	hosts := append([]string(nil), c.MediaHosts...)
	if len(hosts) > 0 && c.MinioEndpoint != "" {
		hosts = append(hosts, c.MinioEndpoint)
	}
	return hosts
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":5000"),
		ClientURL: getEnv("CLIENT_URL", "http://localhost:5173"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // 密码不设默认值
		DBName:     getEnv("DB_NAME", "spotify_clone"),

		RedisHost:       getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "spotify-clone"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MediaURLTTL:    getEnvDuration("MEDIA_URL_TTL", time.Hour),
		MediaHosts:     getEnvList("MEDIA_ALLOWED_HOSTS"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 30*24*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		Player: playerFromEnv(),

		SearchDebounce: getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
	}
}

func playerFromEnv() PlayerSettings {
	return PlayerSettings{
		RestartThreshold: getEnvDuration("PLAYER_RESTART_THRESHOLD", 2*time.Second),
		DefaultVolume:    getEnvInt("PLAYER_DEFAULT_VOLUME", 70),
		ReadyTimeout:     getEnvDuration("PLAYER_READY_TIMEOUT", 15*time.Second),
		ProbeMedia:       getEnvBool("PLAYER_PROBE_MEDIA", true),
	}
}

// Validate 校验启动所必需的配置
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	return c.Player.Validate()
}

// Validate 校验播放器参数
func (p PlayerSettings) Validate() error {
	if p.DefaultVolume < 0 || p.DefaultVolume > 100 {
		return errors.New("PLAYER_DEFAULT_VOLUME must be within 0..100")
	}
	if p.RestartThreshold < 0 {
		return errors.New("PLAYER_RESTART_THRESHOLD must not be negative")
	}
	if p.ReadyTimeout <= 0 {
		return errors.New("PLAYER_READY_TIMEOUT must be positive")
	}
	return nil
}
