package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env             string        `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	ApiPort         int           `yaml:"api_port" env:"API_PORT" env-default:"5000"`
	ApiHost         string        `yaml:"api_host" env:"API_HOST" env-default:"localhost"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	SinkTimeout     time.Duration `yaml:"sink_timeout" env:"SINK_TIMEOUT" env-default:"3s"`
	PINCost         int           `yaml:"pin_cost" env:"PIN_COST" env-default:"10"`
	Auth            Auth          `yaml:"auth"`
	Postgres        Postgres      `yaml:"postgres"`
	NATS            NATS          `yaml:"nats"`
}

type Auth struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	// RequireToken turns off the x-user-id header and userId query fallback.
	RequireToken bool          `yaml:"require_token" env:"REQUIRE_TOKEN" env-default:"false"`
}

type Postgres struct {
	Enabled bool   `yaml:"enabled" env:"POSTGRES_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"POSTGRES_PORT" env-default:"5433"`
	User    string `yaml:"user" env:"POSTGRES_USER" env-default:"test"`
	Pass    string `yaml:"pass" env:"POSTGRES_PASS" env-default:"12345"`
	Db      string `yaml:"db" env:"POSTGRES_DB" env-default:"test_db"`
}

// URL is the lib/pq connection string for the journal database.
func (p Postgres) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Pass, p.Host, p.Port, p.Db)
}

type NATS struct {
	URL     string `yaml:"url" env:"NATS_URL"`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"atm.transactions"`
}

// MustLoad reads the file given by -config or CONFIG_PATH. Without either,
// the config comes from the environment alone.
func MustLoad() *Config {
	path := fetchConfigPath()

	if path == "" {
		var cfg Config
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic("Failed to read config from env: " + err.Error())
		}
		return &cfg
	}

	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
