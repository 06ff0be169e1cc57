package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/service/ledger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultLogFormat    = logger.FormatText
	defaultDBTimeout    = 30 * time.Second
	defaultNATSSubject  = "paysms.notify"
	defaultRematchEvery = time.Minute

	// Currency limits are read from PAYSMS_* variables
	limitsPrefix = "PAYSMS"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Log output format: text or json
	LogFormat string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key forwarder tokens are signed with
	SecretKey string

	// Cards payments are received on, comma separated
	Cards string

	// Recipient of admin notifications, "admin" when empty
	AdminTarget string

	// Redis to share locks between instances, in-process locks when empty
	RedisURL string

	// NATS JetStream to publish notifications, logged when empty
	NATSURL     string
	NATSSubject string

	// Upper bound for the storage work of one message
	DBTimeout time.Duration

	// How often stored payments naming a phone are matched again
	RematchInterval time.Duration

	Limits ledger.Limits
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		LogFormat:   defaultLogFormat,
		ListenAddr:  defaultListenAddr,
		NATSSubject: defaultNATSSubject,
		DBTimeout:   defaultDBTimeout,
		Limits:      ledger.DefaultLimits(),

		RematchInterval: defaultRematchEvery,
	}
}

// Load variable from '.env' file (should be located at working directory)
// PAYSMS_* keys go to the process environment unless already set there
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		for key, value := range envMap {
			if !strings.HasPrefix(key, limitsPrefix+"_") {
				continue
			}
			if _, ok := os.LookupEnv(key); !ok {
				if err := os.Setenv(key, value); err != nil {
					return err
				}
			}
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	// Invalid durations are ignored
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil && d > 0 {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":  setString(&c.ListenAddr),
		"DATABASE_URI": setString(&c.DatabaseDSN),
		"SECRET_KEY":   setString(&c.SecretKey),
		"LOG_LEVEL":    setString(&c.LogLevel),
		"LOG_FORMAT":   setString(&c.LogFormat),
		"CARDS":        setString(&c.Cards),
		"ADMIN_TARGET": setString(&c.AdminTarget),
		"REDIS_URL":    setString(&c.RedisURL),
		"NATS_URL":     setString(&c.NATSURL),
		"NATS_SUBJECT": setString(&c.NATSSubject),
		"DB_TIMEOUT":   setDuration(&c.DBTimeout),

		"REMATCH_INTERVAL": setDuration(&c.RematchInterval),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("paysms", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key forwarder tokens are signed with")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.LogFormat, "log-format", "f", c.LogFormat, "Logging format (text, json)")
	fs.StringVarP(&c.Cards, "cards", "c", c.Cards, "Comma separated cards payments are received on")
	fs.StringVar(&c.AdminTarget, "admin-target", c.AdminTarget, "Recipient of admin notifications")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis URL for locks shared between instances")
	fs.StringVar(&c.NATSURL, "nats", c.NATSURL, "NATS URL to publish notifications to")
	fs.StringVar(&c.NATSSubject, "nats-subject", c.NATSSubject, "NATS subject prefix for notifications")
	fs.DurationVar(&c.DBTimeout, "db-timeout", c.DBTimeout, "Timeout of the storage work for one message")
	fs.DurationVar(&c.RematchInterval, "rematch-interval", c.RematchInterval, "How often unmatched payments are retried")

	return fs.Parse(args)
}

// CardList returns configured cards without blanks
func (c *Config) CardList() []string {
	var cards []string
	for _, card := range strings.Split(c.Cards, ",") {
		if card = strings.TrimSpace(card); card != "" {
			cards = append(cards, card)
		}
	}
	return cards
}

// Amounts are parsed with decimal UnmarshalText, never through float
type limitsEnv struct {
	MinCup             decimal.Decimal `envconfig:"MIN_CUP" default:"1000"`
	MaxCup             decimal.Decimal `envconfig:"MAX_CUP" default:"50000"`
	FirstDepCupPercent decimal.Decimal `envconfig:"FIRST_DEP_CUP_PERCENT" default:"10"`

	MinSaldo             decimal.Decimal `envconfig:"MIN_SALDO" default:"500"`
	MaxSaldo             decimal.Decimal `envconfig:"MAX_SALDO" default:"20000"`
	FirstDepSaldoPercent decimal.Decimal `envconfig:"FIRST_DEP_SALDO_PERCENT" default:"10"`

	MinUsdt             decimal.Decimal `envconfig:"MIN_USDT" default:"10"`
	MaxUsdt             decimal.Decimal `envconfig:"MAX_USDT" default:"1000"`
	FirstDepUsdtPercent decimal.Decimal `envconfig:"FIRST_DEP_USDT_PERCENT" default:"5"`
}

// LoadLimits reads PAYSMS_* variables from the process environment
func (c *Config) LoadLimits() error {
	var env limitsEnv
	if err := envconfig.Process(limitsPrefix, &env); err != nil {
		return fmt.Errorf("parsing currency limits: %w", err)
	}

	limits := ledger.Limits{
		Cup:   ledger.CurrencyLimits{Min: env.MinCup, Max: env.MaxCup, FirstDepositBonusPct: env.FirstDepCupPercent},
		Saldo: ledger.CurrencyLimits{Min: env.MinSaldo, Max: env.MaxSaldo, FirstDepositBonusPct: env.FirstDepSaldoPercent},
		Usdt:  ledger.CurrencyLimits{Min: env.MinUsdt, Max: env.MaxUsdt, FirstDepositBonusPct: env.FirstDepUsdtPercent},
	}

	for name, cl := range map[string]ledger.CurrencyLimits{"cup": limits.Cup, "saldo": limits.Saldo, "usdt": limits.Usdt} {
		if !cl.Min.IsPositive() || cl.Max.LessThan(cl.Min) || cl.FirstDepositBonusPct.IsNegative() {
			return fmt.Errorf("invalid %s limits: min %s, max %s, bonus %s%%", name, cl.Min, cl.Max, cl.FirstDepositBonusPct)
		}
	}

	c.Limits = limits
	return nil
}
