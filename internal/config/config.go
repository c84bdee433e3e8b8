package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Metadata cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Environment string
	LogLevel    string
	LogFile     string
	Port        string

	// GroupDBConfig is the provider JSON handed to the store factory
	GroupDBConfig  string
	RPSLimit       float64
	RPSBurst       int
	SeedSampleData bool

	MetadataFetchTimeout time.Duration
	MetadataCacheType    string
	MetadataCacheTTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads an optional .env file and then the environment. Invalid values
// are logged and replaced by their defaults.
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", zap.Error(err))
	}

	l := &loader{logger: logger.Named("config")}
	cfg := &Config{
		Environment:          l.str("ENVIRONMENT", "production"),
		LogLevel:             l.str("LOG_LEVEL", "info"),
		LogFile:              l.str("LOG_FILE", ""),
		Port:                 l.str("PORT", "8080"),
		GroupDBConfig:        l.str("GROUP_DB_CONFIG", ""),
		RPSLimit:             l.float("RPS_LIMIT", 10),
		RPSBurst:             l.int("RPS_BURST", 20),
		SeedSampleData:       l.bool("SEED_SAMPLE_DATA", true),
		MetadataFetchTimeout: l.duration("METADATA_FETCH_TIMEOUT", 10*time.Second),
		MetadataCacheType:    l.str("METADATA_CACHE_TYPE", CacheMemory),
		MetadataCacheTTL:     l.duration("METADATA_CACHE_TTL", time.Hour),
		RedisAddr:            l.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        l.str("REDIS_PASSWORD", ""),
		RedisDB:              l.int("REDIS_DB", 0),
	}

	switch cfg.MetadataCacheType {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		l.logger.Warn("unknown metadata cache type, using default",
			zap.String("value", cfg.MetadataCacheType), zap.String("default", CacheMemory))
		cfg.MetadataCacheType = CacheMemory
	}

	l.logger.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.Bool("custom_db_config", cfg.GroupDBConfig != ""),
		zap.String("metadata_cache", cfg.MetadataCacheType))
	return cfg
}

type loader struct {
	logger *zap.Logger
}

func (l *loader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (l *loader) int(key string, def int) int {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		l.invalid(key, v, def)
		return def
	}
	return n
}

func (l *loader) float(key string, def float64) float64 {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		l.invalid(key, v, def)
		return def
	}
	return f
}

func (l *loader) bool(key string, def bool) bool {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.invalid(key, v, def)
		return def
	}
	return b
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := l.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.invalid(key, v, def)
		return def
	}
	return d
}

func (l *loader) invalid(key, value string, def interface{}) {
	l.logger.Warn("invalid configuration value, using default",
		zap.String("key", key), zap.String("value", value), zap.Any("default", def))
}
