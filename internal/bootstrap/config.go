package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/editor"
)

// Config 结构体用于存储从环境变量或 .env 文件加载的配置
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	JWTExpiryHours  int
	ServerPort      string
	LogLevel        string
	AppEnv          string // development / production
	KeyPrefix       string // Redis Key 前缀
	RateLimitMax    int
	RateLimitWindow time.Duration
	AllowedOrigin   string
	InstanceID      string // 区分同一 Redis 上的多个服务进程

	// 编辑器
	GridWidth          int
	GridHeight         int
	HistoryLimit       int
	MaxLayers          int
	ImageCacheTTL      time.Duration
	SessionIdleTimeout time.Duration
}

// LoadConfig 先加载 .env (可选)，再从环境变量读取配置并填充默认值
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // 允许只使用环境变量

	cfg := &Config{
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServerPort:    envOr("SERVER_PORT", "8080"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		AppEnv:        envOr("APP_ENV", "development"),
		KeyPrefix:     envOr("REDIS_KEY_PREFIX", "px:"),
		AllowedOrigin: envOr("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		InstanceID:    envOr("INSTANCE_ID", defaultInstanceID()),
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	var err error
	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"JWT_EXPIRY_HOURS", 24, &cfg.JWTExpiryHours},
		{"RATE_LIMIT_MAX", 100, &cfg.RateLimitMax},
		{"GRID_WIDTH", editor.DefaultWidth, &cfg.GridWidth},
		{"GRID_HEIGHT", editor.DefaultHeight, &cfg.GridHeight},
		{"HISTORY_LIMIT", editor.DefaultHistoryLimit, &cfg.HistoryLimit},
		{"MAX_LAYERS", editor.DefaultMaxLayers, &cfg.MaxLayers},
	}
	for _, v := range ints {
		if *v.dst, err = intEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"RATE_LIMIT_WINDOW", time.Second, &cfg.RateLimitWindow},
		{"IMAGE_CACHE_TTL", 10 * time.Minute, &cfg.ImageCacheTTL},
		{"SESSION_IDLE_TIMEOUT", 30 * time.Minute, &cfg.SessionIdleTimeout},
	}
	for _, v := range durations {
		if *v.dst, err = durationEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if _, err := editor.NewGrid(cfg.GridWidth, cfg.GridHeight); err != nil {
		return nil, fmt.Errorf("GRID_WIDTH/GRID_HEIGHT: %w", err)
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// Grid 返回编辑器网格，尺寸已由 LoadConfig 校验
func (c *Config) Grid() editor.Grid {
	grid, err := editor.NewGrid(c.GridWidth, c.GridHeight)
	if err != nil {
		return editor.DefaultGrid()
	}
	return grid
}

// EditorOptions 返回新编辑会话使用的参数
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		Width:        c.GridWidth,
		Height:       c.GridHeight,
		MaxLayers:    c.MaxLayers,
		HistoryLimit: c.HistoryLimit,
	}
}

// defaultInstanceID 由主机名和进程号组成
func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: invalid integer %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: invalid duration %q", key, v)
	}
	return d, nil
}
