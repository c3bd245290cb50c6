package config

import (
	"fmt"
	"time"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database

	Auth      Auth      `envPrefix:"JWT_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Checkout  Checkout  `envPrefix:"CHECKOUT_"`
	Kafka     Kafka     `envPrefix:"KAFKA_"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
	Currency    string `env:"CURRENCY" envDefault:"USD"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"DATABASE_URL" envDefault:"checkout.db"`
}

type Auth struct {
	Secret string `env:"SECRET,required,notEmpty"`
	Issuer string `env:"ISSUER"`
}

// Checkout.Pricing selects how the charge amount is derived:
// "catalog" re-prices every cart line from the product table,
// "cart" sums the prices the client sent.
type Checkout struct {
	Pricing           string        `env:"PRICING" envDefault:"catalog"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
}

type Kafka struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	OrderTopic string   `env:"ORDER_TOPIC" envDefault:"orders.created"`
}

const (
	PricingCatalog = "catalog"
	PricingCart    = "cart"
)

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Checkout.Pricing {
	case PricingCatalog, PricingCart:
	default:
		return fmt.Errorf("unsupported checkout pricing %q", c.Checkout.Pricing)
	}

	switch c.BrainTree.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("unsupported braintree environment %q", c.BrainTree.Environment)
	}

	if c.Checkout.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile interval must not be negative")
	}

	return nil
}

func (c *Config) Address() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}
