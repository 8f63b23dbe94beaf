// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
//
// Значения читаются из YAML-файла (CONFIG_PATH) и переопределяются переменными
// окружения. Для окружения prod конфиг без секрета сессии считается невалидным:
// процесс должен упасть на старте, а не работать с угадываемым ключом.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Окружения приложения.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// DevSessionSecret используется вне prod, если секрет не задан.
const DevSessionSecret = "dev-only-secret-change-me"

var (
	// ErrMissingSessionSecret — в prod не задан секрет подписи сессий.
	ErrMissingSessionSecret = errors.New("session secret is required in production")
	// ErrMissingStorage — в prod не задана строка подключения к PostgreSQL.
	ErrMissingStorage = errors.New("storage connection string is required in production")
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	UsersFile               string `yaml:"users_file" env:"USERS_FILE" env-default:"./data/users.json"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Session                 `yaml:"session"`
	Gate                    `yaml:"gate"`
	Billing                 `yaml:"billing"`
	RabbitMQ                `yaml:"rabbitmq"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	StaticDir   string        `yaml:"static_dir" env:"STATIC_DIR"`
	// AuthRateLimit — запросов в секунду с одного IP на эндпоинты авторизации.
	AuthRateLimit float64 `yaml:"auth_rate_limit" env-default:"1"`
	AuthRateBurst int     `yaml:"auth_rate_burst" env-default:"5"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	UserCacheTTL time.Duration `yaml:"user_cache_ttl" env-default:"1m"`
}

// Session структура для настройки сессионного токена.
type Session struct {
	SecretKey  string        `yaml:"secret_key" env:"SESSION_SECRET"`
	TTL        time.Duration `yaml:"ttl" env-default:"168h"`
	CookieName string        `yaml:"cookie_name" env-default:"toolbox_session"`
	TrialDays  int           `yaml:"trial_days" env-default:"5"`
}

// Gate структура для настройки защищённых путей.
type Gate struct {
	ProtectedPrefixes []string `yaml:"protected_prefixes" env-default:"/tools/,/api/tools"`
	APIPrefix         string   `yaml:"api_prefix" env-default:"/api/"`
	LoginPath         string   `yaml:"login_path" env-default:"/connexion"`
	ReturnParam       string   `yaml:"return_param" env-default:"next"`
	PricingPath       string   `yaml:"pricing_path" env-default:"/tarifs"`
}

// Billing структура для приёма событий об изменении подписки.
type Billing struct {
	WebhookSecret string `yaml:"webhook_secret" env:"BILLING_WEBHOOK_SECRET"`
}

// RabbitMQ структура для публикации событий учётных записей.
// Пустой адрес отключает публикацию.
type RabbitMQ struct {
	AddressRabbitMQ string        `yaml:"addressrabbitmq" env:"RABBITMQ_URL"`
	Exchange        string        `yaml:"exchange" env-default:"toolbox.events"`
	Retries         int           `yaml:"retries" env-default:"3"`
	RetryDelay      time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Scheduler структура для напоминаний об окончании пробного периода.
// Работает, только если настроен RabbitMQ.
type Scheduler struct {
	ReminderLead     time.Duration `yaml:"reminder_lead" env-default:"24h"`
	ReminderInterval time.Duration `yaml:"reminder_interval" env-default:"12h"`
}

// IsProduction сообщает, запущено ли приложение в prod.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// Load читает конфиг из файла по пути path и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет инварианты конфига и подставляет dev-значения вне prod.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		if c.IsProduction() {
			return ErrMissingSessionSecret
		}
		c.SecretKey = DevSessionSecret
	}
	if c.StorageConnectionString == "" && c.IsProduction() {
		return ErrMissingStorage
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", c.ReminderInterval)
	}
	if c.TrialDays < 0 {
		return fmt.Errorf("trial days must not be negative, got %d", c.TrialDays)
	}
	return nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage: postgres=%t file=%s\n"+
			"Redis: %s\n"+
			"RabbitMQ: enabled=%t exchange=%s\n"+
			"HTTPServer: %s (timeout %s, idle %s)\n"+
			"Session: cookie=%s ttl=%s trial_days=%d\n"+
			"Gate: protected=%v login=%s pricing=%s\n",
		c.Env,
		c.StorageConnectionString != "",
		c.UsersFile,
		c.AddressRedis,
		c.AddressRabbitMQ != "",
		c.Exchange,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.CookieName,
		c.Session.TTL,
		c.TrialDays,
		c.ProtectedPrefixes,
		c.LoginPath,
		c.PricingPath,
	)
}
