package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "data/config.yaml"
	configFileEnvKey  = "CONFIG_FILE"
)

type config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	HTTP      HTTPConfig      `yaml:"http"`
	Memcached MemcachedConfig `yaml:"memcached"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type Service struct {
	config config
}

// New loads .env (if any) and then the yaml file named by CONFIG_FILE.
func New() (*Service, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading .env")
	}

	path := os.Getenv(configFileEnvKey)
	if path == "" {
		path = defaultConfigFile
	}

	rawYAML, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(rawYAML)
}

func Parse(rawYAML []byte) (*Service, error) {
	s := &Service{config: defaults()}

	err := yaml.Unmarshal(rawYAML, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}

	if err = s.validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return s, nil
}

func defaults() config {
	return config{
		App: AppConfig{
			DefaultCurrencyCode: "USD",
			MaxRangeDays:        90,
			SignIn:              "/sign-in",
		},
		Database: DatabaseConfig{
			DriverName: "postgres",
			SSLMode:    "disable",
		},
		HTTP: HTTPConfig{
			ListenAddr:            ":8080",
			ReadTimeoutSeconds:    5,
			WriteTimeoutSeconds:   10,
			ShutdownTimeoutSecond: 10,
		},
		Kafka: KafkaConfig{
			Consumer: "ledger-invalidator",
			Topic:    "ledger-events",
		},
		Tracing: TracingConfig{
			Service: "budget-tracker",
		},
	}
}

func (s *Service) validate() error {
	switch s.config.Database.DriverName {
	case "postgres", "sqlite", "memory":
	default:
		return errors.Errorf("unknown database driver %q", s.config.Database.DriverName)
	}
	if s.config.App.MaxRangeDays <= 0 {
		return errors.New("app.max-range-days must be positive")
	}
	return nil
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) Database() *DatabaseConfig {
	return &s.config.Database
}

func (s *Service) HTTP() *HTTPConfig {
	return &s.config.HTTP
}

func (s *Service) Memcached() *MemcachedConfig {
	return &s.config.Memcached
}

func (s *Service) Kafka() *KafkaConfig {
	return &s.config.Kafka
}

func (s *Service) Telegram() *TelegramConfig {
	return &s.config.Telegram
}

func (s *Service) Tracing() *TracingConfig {
	return &s.config.Tracing
}
