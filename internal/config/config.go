// config предоставляет структуру конфигурации клиента и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация клиента.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Creds   CredsConfig   `yaml:"creds"`
	Auth    AuthConfig    `yaml:"auth"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig — параметры доступа к бэкенду маркетплейса.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" env:"API_BASE_URL" env-required:"true"`
	RefreshPath string        `yaml:"refresh_path" env:"API_REFRESH_PATH" env-default:"/auth/refresh-token"`
	Timeout     time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s"`
	UserAgent   string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"mechanic-client"`
}

// CredsConfig — выбор и параметры хранилища учётных данных.
type CredsConfig struct {
	// Backend: "file" или "redis".
	Backend     string `yaml:"backend" env:"CREDS_BACKEND" env-default:"file"`
	FilePath    string `yaml:"file_path" env:"CREDS_FILE_PATH" env-default:".secrets/credentials.json"`
	RedisURL    string `yaml:"redis_url" env:"CREDS_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"CREDS_REDIS_PREFIX" env-default:"mech:creds:"`
}

// AuthConfig — учётные данные для первичного логина из CLI.
type AuthConfig struct {
	Email    string `yaml:"email" env:"MECHANIC_EMAIL"`
	Password string `yaml:"password" env:"MECHANIC_PASSWORD"`
}

// MetricsConfig — отдельный HTTP для Prometheus.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"50095"`
}

// Addr возвращает адрес в формате host:port.
func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
