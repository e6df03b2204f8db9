package config

import (
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Cart storage drivers
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"HTTP_SERVER_PORT"` name the environment variable;
// `default:""` is used when it is unset.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	CatalogAPI CatalogAPIConfig
	Storage    StorageConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Payment    PaymentConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds the health/reflection gRPC listener.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// CatalogAPIConfig points at the remote catalog and payment API.
type CatalogAPIConfig struct {
	URL     string        `envconfig:"CATALOG_API_URL" required:"true"`
	Timeout time.Duration `envconfig:"CATALOG_API_TIMEOUT" default:"10s"`
}

// StorageConfig selects where the cart record lives.
type StorageConfig struct {
	Driver string `envconfig:"CART_STORAGE_DRIVER" default:"file"`
	Key    string `envconfig:"CART_STORAGE_KEY" default:"cart"`
	Dir    string `envconfig:"CART_STORAGE_DIR" default:".storefront"` // file driver only
}

// PostgresConfig holds PostgreSQL connection details. They are only
// required when the postgres driver is selected.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DBNAME"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// PaymentConfig configures the hosted payment UI opened at checkout.
type PaymentConfig struct {
	Currency     string `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	MerchantName string `envconfig:"PAYMENT_MERCHANT_NAME" default:"Storefront"`
	Description  string `envconfig:"PAYMENT_DESCRIPTION" default:"Storefront order"`
	ThemeColor   string `envconfig:"PAYMENT_THEME_COLOR" default:"#121212"`
	CallbackPath string `envconfig:"PAYMENT_CALLBACK_PATH" default:"/api/paymentverification"`
}

// CallbackURL is the payment verification endpoint on the catalog API.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.CatalogAPI.URL, "/") + "/" + strings.TrimLeft(c.Payment.CallbackPath, "/")
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.CatalogAPI.URL); err != nil {
		return fmt.Errorf("invalid CATALOG_API_URL %q: %w", c.CatalogAPI.URL, err)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}

	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("CART_STORAGE_DIR is required for the %s driver", DriverFile)
		}
	case DriverPostgres:
		var missing []string
		for name, v := range map[string]string{
			"POSTGRES_HOST":     c.Postgres.Host,
			"POSTGRES_USER":     c.Postgres.User,
			"POSTGRES_PASSWORD": c.Postgres.Password,
			"POSTGRES_DBNAME":   c.Postgres.DBName,
		} {
			if v == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("postgres driver requires %s", strings.Join(missing, ", "))
		}
	case DriverRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s driver", DriverRedis)
		}
	default:
		return fmt.Errorf("invalid CART_STORAGE_DRIVER: %q", c.Storage.Driver)
	}
	return nil
}
