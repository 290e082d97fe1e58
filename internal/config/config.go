package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

/*
.env 與環境變數一起讀取，環境變數優先
設定檔不存在時只用預設值與環境變數
*/
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogPretty  bool   `mapstructure:"LOG_PRETTY"`
	// 有設定時 log 同時送到這個 kafka topic
	LogKafkaTopic string `mapstructure:"LOG_KAFKA_TOPIC"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`

	KafkaBrokers    []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string   `mapstructure:"KAFKA_TOPIC"`
	KafkaPartitions int      `mapstructure:"KAFKA_PARTITIONS"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	CatalogSeedFile      string `mapstructure:"CATALOG_SEED_FILE"`
	CartStrictValidation bool   `mapstructure:"CART_STRICT_VALIDATION"`

	RateLimitCapacity int `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate     int `mapstructure:"RATE_LIMIT_RATE"`
}

// RedisEnabled reports whether a session snapshot cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}

func (c *Config) LogShippingEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.LogKafkaTopic != ""
}

func (c *Config) DbEnabled() bool {
	return c.DbHost != ""
}

var defaults = map[string]any{
	"SERVER_PORT":            "8080",
	"LOG_LEVEL":              "info",
	"LOG_PRETTY":             false,
	"LOG_KAFKA_TOPIC":        "",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"SESSION_TTL":            "30m",
	"KAFKA_BROKERS":          []string{},
	"KAFKA_TOPIC":            "",
	"KAFKA_PARTITIONS":       6,
	"POSTGRES_DB":            "cartstore",
	"POSTGRES_HOST":          "",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_USER":          "",
	"POSTGRES_PASSWORD":      "",
	"CATALOG_SEED_FILE":      "configs/products.yaml",
	"CART_STRICT_VALIDATION": true,
	"RATE_LIMIT_CAPACITY":    100,
	"RATE_LIMIT_RATE":        20,
}

// Loader owns one viper instance; nothing here is process global.
type Loader struct {
	v       *viper.Viper
	path    string
	hasFile bool
	mu      sync.RWMutex
	current *Config
}

// NewLoader prepares a loader for the given .env path. An empty path or a
// missing file is fine.
func NewLoader(path string) *Loader {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	l := &Loader{v: v, path: path}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			l.hasFile = true
		}
	}
	return l
}

// Load 單純回傳錯誤，由外部決定要不要 Fatal
func (l *Loader) Load() (*Config, error) {
	if l.hasFile {
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
	}

	cf, err := l.unmarshal()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cf
	l.mu.Unlock()
	return cf, nil
}

// Current returns the last successfully loaded config.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch reloads on file change and hands the new config to fn. It is a no-op
// when no file backs the loader.
func (l *Loader) Watch(fn func(cf *Config, err error)) {
	if !l.hasFile {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cf, err := l.unmarshal()
		if err == nil {
			l.mu.Lock()
			l.current = cf
			l.mu.Unlock()
		}
		fn(cf, err)
	})
	l.v.WatchConfig()
}

var ErrInvalidConfig = errors.New("invalid config")

func (l *Loader) unmarshal() (*Config, error) {
	cf := &Config{}
	if err := l.v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cf.ServerPort == "" {
		return nil, fmt.Errorf("%w: SERVER_PORT is empty", ErrInvalidConfig)
	}
	if cf.SessionTTL <= 0 {
		return nil, fmt.Errorf("%w: SESSION_TTL must be positive", ErrInvalidConfig)
	}
	return cf, nil
}
