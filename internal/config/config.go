package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию сервиса риск-мониторинга
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Bridge   BridgeConfig
	Monitor  MonitorConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// BridgeConfig - настройки клиента MT5 bridge (upstream data feed)
type BridgeConfig struct {
	BaseURL        string        // базовый URL bridge сервиса
	RequestTimeout time.Duration // общий таймаут одного запроса
	RateLimit      float64       // исходящих запросов в секунду
	RateBurst      float64       // burst ёмкость token bucket
}

// MonitorConfig - настройки движка мониторинга
//
// Дефолты соответствуют контракту движка: интервал цикла 10s,
// heartbeat 30s, таймаут мёртвого соединения 120s, глобальный сброс
// счётчиков раз в час, лимит 5 алертов на пользователя в часовом
// бакете и 5 кандидатов за один цикл.
type MonitorConfig struct {
	Interval            time.Duration // интервал цикла оценки
	HeartbeatInterval   time.Duration // интервал heartbeat по подписке
	SweepInterval       time.Duration // интервал проверки здоровья соединений
	ConnectionTimeout   time.Duration // порог eviction: now - lastHeartbeat
	RateLimitReset      time.Duration // интервал глобального сброса счётчиков
	MaxAlertsPerBucket  int           // лимит алертов на (user, час)
	MaxAlertsPerCycle   int           // лимит кандидатов на пользователя за цикл
	VolatilityThreshold float64       // относительный спред, выше которого - spike
	TradeFetchLimit     int           // сколько последних сделок анализируем
	AlertRetention      time.Duration // возраст, после которого алерт удаляется из журнала
	RetentionSweep      time.Duration // интервал уборки журнала
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8090),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "riskmonitor"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Bridge: BridgeConfig{
			BaseURL:        getEnv("MT5_BRIDGE_URL", "http://localhost:5001"),
			RequestTimeout: getEnvAsDuration("MT5_BRIDGE_TIMEOUT", 5*time.Second),
			RateLimit:      getEnvAsFloat("MT5_BRIDGE_RATE_LIMIT", 20),
			RateBurst:      getEnvAsFloat("MT5_BRIDGE_RATE_BURST", 40),
		},
		Monitor: MonitorConfig{
			Interval:            getEnvAsDuration("MONITOR_INTERVAL", 10*time.Second),
			HeartbeatInterval:   getEnvAsDuration("HEARTBEAT_INTERVAL", 30*time.Second),
			SweepInterval:       getEnvAsDuration("SWEEP_INTERVAL", 30*time.Second),
			ConnectionTimeout:   getEnvAsDuration("CONNECTION_TIMEOUT", 120*time.Second),
			RateLimitReset:      getEnvAsDuration("RATE_LIMIT_RESET", time.Hour),
			MaxAlertsPerBucket:  getEnvAsInt("MAX_ALERTS_PER_HOUR", 5),
			MaxAlertsPerCycle:   getEnvAsInt("MAX_ALERTS_PER_CYCLE", 5),
			VolatilityThreshold: getEnvAsFloat("VOLATILITY_THRESHOLD", 0.02),
			TradeFetchLimit:     getEnvAsInt("TRADE_FETCH_LIMIT", 50),
			AlertRetention:      getEnvAsDuration("ALERT_RETENTION", 30*24*time.Hour),
			RetentionSweep:      getEnvAsDuration("RETENTION_SWEEP_INTERVAL", 12*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Bridge.BaseURL == "" {
		return fmt.Errorf("MT5_BRIDGE_URL is required")
	}

	if c.Bridge.RequestTimeout <= 0 {
		return fmt.Errorf("MT5_BRIDGE_TIMEOUT must be positive, got %v", c.Bridge.RequestTimeout)
	}

	// Интервалы движка должны быть положительными
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive, got %v", c.Monitor.Interval)
	}
	if c.Monitor.HeartbeatInterval <= 0 {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %v", c.Monitor.HeartbeatInterval)
	}
	if c.Monitor.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.Monitor.SweepInterval)
	}
	if c.Monitor.RateLimitReset <= 0 {
		return fmt.Errorf("RATE_LIMIT_RESET must be positive, got %v", c.Monitor.RateLimitReset)
	}

	// Таймаут мёртвого соединения должен превышать heartbeat,
	// иначе живые подписки будут выбрасываться между heartbeat'ами
	if c.Monitor.ConnectionTimeout <= c.Monitor.HeartbeatInterval {
		return fmt.Errorf("CONNECTION_TIMEOUT (%v) must exceed HEARTBEAT_INTERVAL (%v)",
			c.Monitor.ConnectionTimeout, c.Monitor.HeartbeatInterval)
	}

	if c.Monitor.MaxAlertsPerBucket < 1 {
		return fmt.Errorf("MAX_ALERTS_PER_HOUR must be at least 1, got %d", c.Monitor.MaxAlertsPerBucket)
	}
	if c.Monitor.MaxAlertsPerCycle < 1 {
		return fmt.Errorf("MAX_ALERTS_PER_CYCLE must be at least 1, got %d", c.Monitor.MaxAlertsPerCycle)
	}

	if c.Monitor.VolatilityThreshold <= 0 || c.Monitor.VolatilityThreshold >= 1 {
		return fmt.Errorf("VOLATILITY_THRESHOLD must be in (0, 1), got %v", c.Monitor.VolatilityThreshold)
	}

	if c.Monitor.TradeFetchLimit < 1 || c.Monitor.TradeFetchLimit > 500 {
		return fmt.Errorf("TRADE_FETCH_LIMIT must be between 1 and 500, got %d", c.Monitor.TradeFetchLimit)
	}

	if c.Monitor.AlertRetention <= 0 {
		return fmt.Errorf("ALERT_RETENTION must be positive, got %v", c.Monitor.AlertRetention)
	}
	if c.Monitor.RetentionSweep <= 0 {
		return fmt.Errorf("RETENTION_SWEEP_INTERVAL must be positive, got %v", c.Monitor.RetentionSweep)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
