package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver  string // postgres or sqlite
	Timeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	LockTTL  time.Duration
}

type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

type BookingConfig struct {
	Timezone string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Location resolves the clinic timezone used for date-only comparisons.
func (c BookingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func LoadConfig() (*Config, error) {
	return LoadConfigFile(".env")
}

// LoadConfigFile reads the given env file when it exists; environment
// variables always win over file values.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "clinic-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("STORE_TIMEOUT", "3s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("SQLITE_PATH", "data/clinic.db")
	v.SetDefault("SLOT_LOCK_TTL", "5s")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("TIMEZONE", "")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver:  v.GetString("STORE_DRIVER"),
			Timeout: v.GetDuration("STORE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		SQLite: SQLiteConfig{
			Path: v.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Username: v.GetString("REDIS_USERNAME"),
			Password: v.GetString("REDIS_PASSWORD"),
			LockTTL:  v.GetDuration("SLOT_LOCK_TTL"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			Issuer:      v.GetString("JWT_ISSUER"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Booking: BookingConfig{
			Timezone: v.GetString("TIMEZONE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.Redis.Addr != "" && c.Redis.LockTTL <= 0 {
		return errors.New("SLOT_LOCK_TTL must be positive when REDIS_ADDR is set")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}
