package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`
	AppPort    string `mapstructure:"APP_PORT"`

	// --- Redis ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- Кеш статистики ---
	CacheLockWaitMS    int `mapstructure:"CACHE_LOCK_WAIT_MS"`
	CacheLockHoldMS    int `mapstructure:"CACHE_LOCK_HOLD_MS"`
	CacheStatsTTLHours int `mapstructure:"CACHE_STATS_TTL_HOURS"`

	// Период flush — общий плюс пер-доменные переопределения (0 = общий)
	SyncPeriodSeconds        int `mapstructure:"SYNC_PERIOD_SECONDS"`
	SyncPostPeriodSeconds    int `mapstructure:"SYNC_POST_PERIOD_SECONDS"`
	SyncCommentPeriodSeconds int `mapstructure:"SYNC_COMMENT_PERIOD_SECONDS"`
	SyncFollowPeriodSeconds  int `mapstructure:"SYNC_FOLLOW_PERIOD_SECONDS"`
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))

	// пароли маскируем
	if c.DBPassword != "" {
		sb.WriteString("  DBPassword: ********\n")
	} else {
		sb.WriteString("  DBPassword: (empty)\n")
	}

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	if c.RedisPassword != "" {
		sb.WriteString("  RedisPassword: ********\n")
	} else {
		sb.WriteString("  RedisPassword: (empty)\n")
	}

	sb.WriteString(fmt.Sprintf("  LockWait: %s\n", c.LockWait()))
	sb.WriteString(fmt.Sprintf("  LockHold: %s\n", c.LockHold()))
	sb.WriteString(fmt.Sprintf("  StatsTTL: %s\n", c.StatsTTL()))
	sb.WriteString(fmt.Sprintf("  SyncPeriod post=%s comment=%s follow=%s\n",
		c.PostSyncPeriod(), c.CommentSyncPeriod(), c.FollowSyncPeriod()))

	return sb.String()
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// Загружаем .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"APP_ENV", "APP_PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"CACHE_LOCK_WAIT_MS", "CACHE_LOCK_HOLD_MS", "CACHE_STATS_TTL_HOURS",
		"SYNC_PERIOD_SECONDS", "SYNC_POST_PERIOD_SECONDS",
		"SYNC_COMMENT_PERIOD_SECONDS", "SYNC_FOLLOW_PERIOD_SECONDS",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Дефолты подсистемы кеша (см. LockWait и далее)
	v.SetDefault("DB_SCHEME", "tenten")
	v.SetDefault("CACHE_LOCK_WAIT_MS", 3)
	v.SetDefault("CACHE_LOCK_HOLD_MS", 10)
	v.SetDefault("CACHE_STATS_TTL_HOURS", 24)
	v.SetDefault("SYNC_PERIOD_SECONDS", 60)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// ---- Производные настройки кеша статистики ----

func (c *Config) LockWait() time.Duration {
	return time.Duration(c.CacheLockWaitMS) * time.Millisecond
}

func (c *Config) LockHold() time.Duration {
	return time.Duration(c.CacheLockHoldMS) * time.Millisecond
}

func (c *Config) StatsTTL() time.Duration {
	return time.Duration(c.CacheStatsTTLHours) * time.Hour
}

func (c *Config) PostSyncPeriod() time.Duration    { return c.syncPeriod(c.SyncPostPeriodSeconds) }
func (c *Config) CommentSyncPeriod() time.Duration { return c.syncPeriod(c.SyncCommentPeriodSeconds) }
func (c *Config) FollowSyncPeriod() time.Duration  { return c.syncPeriod(c.SyncFollowPeriodSeconds) }

func (c *Config) syncPeriod(override int) time.Duration {
	if override > 0 {
		return time.Duration(override) * time.Second
	}
	return time.Duration(c.SyncPeriodSeconds) * time.Second
}
