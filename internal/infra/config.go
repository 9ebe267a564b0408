package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации движка синхронизации.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Channel  ChannelConfig  `mapstructure:"channel"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки локального HTTP-сервера (state/metrics).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GatewayConfig описывает подключение к Remote Data Gateway (REST).
type GatewayConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  uint          `mapstructure:"retry_attempts"`

	// Лимитер исходящих запросов (снапшоты + команды)
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	// Настройки Circuit Breaker
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
}

// ChannelConfig выбирает транспорт живого канала: websocket или redis.
type ChannelConfig struct {
	Kind string `mapstructure:"kind"` // websocket, redis

	// Для websocket
	URL string `mapstructure:"url"`

	// Для redis pub/sub
	EventsChannel   string `mapstructure:"events_channel"`
	CommandsChannel string `mapstructure:"commands_channel"`
}

// RedisConfig описывает подключение к Redis (транспорт живого канала).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig описывает подключение к PostgreSQL (журнал действий).
// Пустой URL отключает журнал целиком.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// EngineConfig содержит настройки ядра синхронизации.
type EngineConfig struct {
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	AutoRefresh       bool          `mapstructure:"auto_refresh"`
	DetectionCapacity int           `mapstructure:"detection_capacity"`

	// Политика переподключения живого канала
	ReconnectInitialDelay time.Duration `mapstructure:"reconnect_initial_delay"`
	ReconnectMaxDelay     time.Duration `mapstructure:"reconnect_max_delay"`
	ReconnectMultiplier   float64       `mapstructure:"reconnect_multiplier"`
	ReconnectMaxAttempts  uint          `mapstructure:"reconnect_max_attempts"` // 0 = без лимита

	// Журнал действий
	JournalBufferSize    int           `mapstructure:"journal_buffer_size"`
	JournalFlushInterval time.Duration `mapstructure:"journal_flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: GATEWAY_BASE_URL перекроет gateway.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("gateway.request_timeout", 10*time.Second)
	v.SetDefault("gateway.retry_attempts", 3)
	v.SetDefault("gateway.rate_limit", 50.0)
	v.SetDefault("gateway.rate_burst", 10)
	v.SetDefault("gateway.cb_max_requests", 3)
	v.SetDefault("gateway.cb_interval", 5*time.Second)
	v.SetDefault("gateway.cb_timeout", 30*time.Second)

	v.SetDefault("channel.kind", "websocket")
	v.SetDefault("channel.events_channel", "argus:dashboard:events")
	v.SetDefault("channel.commands_channel", "argus:dashboard:commands")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 10)

	v.SetDefault("engine.refresh_interval", 30*time.Second)
	v.SetDefault("engine.auto_refresh", true)
	v.SetDefault("engine.detection_capacity", 100)
	v.SetDefault("engine.reconnect_initial_delay", 1*time.Second)
	v.SetDefault("engine.reconnect_max_delay", 30*time.Second)
	v.SetDefault("engine.reconnect_multiplier", 2.0)
	v.SetDefault("engine.reconnect_max_attempts", 0)
	v.SetDefault("engine.journal_buffer_size", 10000)
	v.SetDefault("engine.journal_flush_interval", 500*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
