package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Meeting    MeetingConfig
	ClassJobs  ClassJobsConfig
	Cache      CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig tunes the conflict checker, generator and lifecycle rules.
type SchedulingConfig struct {
	GenerationWindowDays   int
	NoticePeriod           time.Duration
	TutorSkipsAvailability bool
	LockTTL                time.Duration
	LockWait               time.Duration
}

// MeetingConfig configures the meeting link issuer.
type MeetingConfig struct {
	BaseURL    string
	RoomPrefix string
	JoinSecret string
	JoinTTL    time.Duration
}

// ClassJobsConfig governs the background class lifecycle worker.
type ClassJobsConfig struct {
	Enabled  bool
	Interval time.Duration
	Workers  int
	Retries  int
}

// CacheConfig controls read caching of session listings.
type CacheConfig struct {
	UpcomingTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		GenerationWindowDays:   v.GetInt("SCHEDULING_GENERATION_WINDOW_DAYS"),
		NoticePeriod:           parseDuration(v.GetString("SCHEDULING_NOTICE_PERIOD"), 12*time.Hour),
		TutorSkipsAvailability: v.GetBool("SCHEDULING_TUTOR_SKIPS_AVAILABILITY"),
		LockTTL:                parseDuration(v.GetString("SCHEDULING_LOCK_TTL"), 10*time.Second),
		LockWait:               parseDuration(v.GetString("SCHEDULING_LOCK_WAIT"), 3*time.Second),
	}
	if cfg.Scheduling.GenerationWindowDays <= 0 {
		cfg.Scheduling.GenerationWindowDays = 7
	}

	cfg.Meeting = MeetingConfig{
		BaseURL:    strings.TrimRight(v.GetString("MEETING_BASE_URL"), "/"),
		RoomPrefix: v.GetString("MEETING_ROOM_PREFIX"),
		JoinSecret: v.GetString("MEETING_JOIN_SECRET"),
		JoinTTL:    parseDuration(v.GetString("MEETING_JOIN_TTL"), 4*time.Hour),
	}

	cfg.ClassJobs = ClassJobsConfig{
		Enabled:  v.GetBool("ENABLE_CLASS_JOBS"),
		Interval: parseDuration(v.GetString("CLASS_JOBS_INTERVAL"), time.Hour),
		Workers:  v.GetInt("CLASS_JOBS_WORKERS"),
		Retries:  v.GetInt("CLASS_JOBS_RETRIES"),
	}

	cfg.Cache = CacheConfig{
		UpcomingTTL: parseDuration(v.GetString("UPCOMING_CACHE_TTL"), time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "studymate")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_GENERATION_WINDOW_DAYS", 7)
	v.SetDefault("SCHEDULING_NOTICE_PERIOD", "12h")
	v.SetDefault("SCHEDULING_TUTOR_SKIPS_AVAILABILITY", true)
	v.SetDefault("SCHEDULING_LOCK_TTL", "10s")
	v.SetDefault("SCHEDULING_LOCK_WAIT", "3s")

	v.SetDefault("MEETING_BASE_URL", "https://meet.jit.si")
	v.SetDefault("MEETING_ROOM_PREFIX", "studymate-session")
	v.SetDefault("MEETING_JOIN_SECRET", "dev_meeting_secret")
	v.SetDefault("MEETING_JOIN_TTL", "4h")

	v.SetDefault("ENABLE_CLASS_JOBS", false)
	v.SetDefault("CLASS_JOBS_INTERVAL", "1h")
	v.SetDefault("CLASS_JOBS_WORKERS", 1)
	v.SetDefault("CLASS_JOBS_RETRIES", 3)

	v.SetDefault("UPCOMING_CACHE_TTL", "1m")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
