package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-TherapyBooking/internal/domain"
)

// Стратегии выбора хранилища бронирований
const (
	StrategyReservation = "reservation" // только хранилище слотов (PostgreSQL)
	StrategyIntent      = "intent"      // только намерения (Redis)
	StrategyAuto        = "auto"        // слоты с переходом на намерения при недоступности
	StrategyMemory      = "memory"      // слоты в памяти процесса, для локального запуска
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Redis          RedisConfig          `toml:"redis"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	ProfileService ProfileServiceConfig `toml:"profile_service"`
	Booking        BookingConfig        `toml:"booking"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN возвращает строку подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig настройки Redis для намерений бронирования
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// ProfileServiceConfig настройки клиента сервиса профилей (таймаут в секундах)
type ProfileServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// BookingConfig параметры протокола бронирования
type BookingConfig struct {
	Strategy             string `toml:"strategy"`
	HoldMinutes          int    `toml:"hold_minutes"`
	SweepIntervalSeconds int    `toml:"sweep_interval_seconds"`
	SweepBatchSize       int    `toml:"sweep_batch_size"`
	MinHoursAhead        int    `toml:"min_hours_ahead"`
	SessionMinutes       int    `toml:"session_minutes"`
	GapMinutes           int    `toml:"gap_minutes"`
}

// HoldDuration длительность холда
func (c BookingConfig) HoldDuration() time.Duration {
	return time.Duration(c.HoldMinutes) * time.Minute
}

// SweepInterval период прохода очистки истекших холдов
func (c BookingConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// UsesReservations возвращает true, если стратегия использует хранилище слотов
func (c BookingConfig) UsesReservations() bool {
	return c.Strategy == StrategyReservation || c.Strategy == StrategyAuto || c.Strategy == StrategyMemory
}

// UsesIntents возвращает true, если стратегия использует намерения
func (c BookingConfig) UsesIntents() bool {
	return c.Strategy == StrategyIntent || c.Strategy == StrategyAuto
}

// Load читает конфигурацию из TOML файла, заполняет значения по умолчанию и валидирует ее
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "therapy-booking",
		},
		ProfileService: ProfileServiceConfig{
			Timeout: 5,
		},
		Booking: BookingConfig{
			Strategy:             StrategyAuto,
			HoldMinutes:          int(domain.DefaultHoldDuration / time.Minute),
			SweepIntervalSeconds: 60,
			SweepBatchSize:       100,
			MinHoursAhead:        domain.DefaultMinHoursAhead,
			SessionMinutes:       domain.DefaultSessionMinutes,
			GapMinutes:           domain.DefaultGapMinutes,
		},
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort))
	}

	switch c.Booking.Strategy {
	case StrategyReservation, StrategyIntent, StrategyAuto, StrategyMemory:
	default:
		errs = append(errs, fmt.Errorf("booking.strategy %q: expected one of %s, %s, %s, %s",
			c.Booking.Strategy, StrategyReservation, StrategyIntent, StrategyAuto, StrategyMemory))
	}

	hold := c.Booking.HoldDuration()
	if hold < domain.MinHoldDuration || hold > domain.MaxHoldDuration {
		errs = append(errs, fmt.Errorf("booking.hold_minutes %d out of range [%s, %s]",
			c.Booking.HoldMinutes, domain.MinHoldDuration, domain.MaxHoldDuration))
	}

	if c.Booking.SweepIntervalSeconds <= 0 {
		errs = append(errs, errors.New("booking.sweep_interval_seconds must be positive"))
	}
	if c.Booking.SessionMinutes <= 0 {
		errs = append(errs, errors.New("booking.session_minutes must be positive"))
	}
	if c.Booking.GapMinutes < 0 {
		errs = append(errs, errors.New("booking.gap_minutes must not be negative"))
	}
	if c.Booking.MinHoursAhead < 0 {
		errs = append(errs, errors.New("booking.min_hours_ahead must not be negative"))
	}

	if c.Booking.UsesIntents() && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required for the intent store"))
	}
	if c.ProfileService.URL == "" {
		errs = append(errs, errors.New("profile_service.url is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
