package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported document store drivers.
const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store         StoreConfig
	Database      DatabaseConfig
	Mongo         MongoConfig
	Firestore     FirestoreConfig
	Redis         RedisConfig
	Cache         CacheConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduling    SchedulingConfig
	Notifications NotificationsConfig
	Events        EventsConfig
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string
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

// MongoConfig configures the MongoDB document store.
type MongoConfig struct {
	URI      string
	Database string
}

// FirestoreConfig configures the Firestore document store.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles projection caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig carries the defaults of the scheduling engine.
type SchedulingConfig struct {
	MinAdvanceHours      int
	MaxPerWeek           int
	MaxPerMonth          int
	WindowDays           int
	CalendarHorizonWeeks int
	ClassMinutes         int
	WeekStart            time.Weekday
	Location             *time.Location
}

// NotificationsConfig controls confirmation email delivery.
type NotificationsConfig struct {
	Enabled    bool
	Provider   string
	SendGrid   string
	AppName    string
	FromEmail  string
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// EventsConfig controls publication of reschedule events.
type EventsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
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

	cfg.Store = StoreConfig{Driver: strings.ToLower(v.GetString("STORE_DRIVER"))}

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

	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DATABASE"),
	}

	cfg.Firestore = FirestoreConfig{
		ProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
		CredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		MinAdvanceHours:      v.GetInt("SCHEDULING_MIN_ADVANCE_HOURS"),
		MaxPerWeek:           v.GetInt("SCHEDULING_MAX_PER_WEEK"),
		MaxPerMonth:          v.GetInt("SCHEDULING_MAX_PER_MONTH"),
		WindowDays:           v.GetInt("SCHEDULING_WINDOW_DAYS"),
		CalendarHorizonWeeks: v.GetInt("SCHEDULING_CALENDAR_HORIZON_WEEKS"),
		ClassMinutes:         v.GetInt("SCHEDULING_CLASS_MINUTES"),
		WeekStart:            parseWeekday(v.GetString("SCHEDULING_WEEK_START"), time.Sunday),
		Location:             parseLocation(v.GetString("SCHEDULING_TIMEZONE")),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:    v.GetBool("NOTIFICATIONS_ENABLED"),
		Provider:   strings.ToLower(v.GetString("NOTIFICATIONS_PROVIDER")),
		SendGrid:   v.GetString("SENDGRID_API_KEY"),
		AppName:    v.GetString("NOTIFICATIONS_APP_NAME"),
		FromEmail:  v.GetString("NOTIFICATIONS_FROM_EMAIL"),
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		Retries:    v.GetInt("NOTIFICATIONS_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Events = EventsConfig{
		Enabled: v.GetBool("EVENTS_ENABLED"),
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("EVENTS_TOPIC"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreMemory)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "class_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGO_DATABASE", "class_scheduler")

	v.SetDefault("FIRESTORE_PROJECT_ID", "")
	v.SetDefault("FIRESTORE_CREDENTIALS_FILE", "")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_MIN_ADVANCE_HOURS", 24)
	v.SetDefault("SCHEDULING_MAX_PER_WEEK", 1)
	v.SetDefault("SCHEDULING_MAX_PER_MONTH", 2)
	v.SetDefault("SCHEDULING_WINDOW_DAYS", 30)
	v.SetDefault("SCHEDULING_CALENDAR_HORIZON_WEEKS", 104)
	v.SetDefault("SCHEDULING_CLASS_MINUTES", 60)
	v.SetDefault("SCHEDULING_WEEK_START", "sunday")
	v.SetDefault("SCHEDULING_TIMEZONE", "Local")

	v.SetDefault("NOTIFICATIONS_ENABLED", false)
	v.SetDefault("NOTIFICATIONS_PROVIDER", "log")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("NOTIFICATIONS_APP_NAME", "Class Scheduler")
	v.SetDefault("NOTIFICATIONS_FROM_EMAIL", "no-reply@class-scheduler.local")
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "5s")

	v.SetDefault("EVENTS_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_TOPIC", "class-scheduler.reschedules")
}

// isMissingFile tolerates an absent .env; SetConfigFile surfaces it as a path error.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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

func parseWeekday(raw string, fallback time.Weekday) time.Weekday {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == raw {
			return d
		}
	}
	return fallback
}

func parseLocation(raw string) *time.Location {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return time.Local
	}
	return loc
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
