package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/classtrack/rollcall/internal/logger"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultBaseURL       = "http://localhost:8000"
	defaultEnvironment   = logger.EnvProduction
	defaultRatePerMinute = 60
	defaultRateBurst     = 10
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the rollcall service will be run
	ListenAddr string

	// Public base URL embedded into attendance QR links
	BaseURL string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Session tokens and teacher access tokens are signed symmetrically with this key
	SecretKey string

	// Environment
	Environment string

	// Per client address request budget on the public endpoints
	RatePerMinute int
	RateBurst     int
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		BaseURL:       defaultBaseURL,
		Environment:   defaultEnvironment,
		RatePerMinute: defaultRatePerMinute,
		RateBurst:     defaultRateBurst,
	}
}

// Load variable from '.env' file (should be located at working directory)
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
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":     setString(&c.ListenAddr),
		"BASE_URL":        setString(&c.BaseURL),
		"DATABASE_URI":    setString(&c.DatabaseDSN),
		"SECRET_KEY":      setString(&c.SecretKey),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"RATE_PER_MINUTE": setInt(&c.RatePerMinute),
		"RATE_BURST":      setInt(&c.RateBurst),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("rollcall", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.BaseURL, "base-url", "b", c.BaseURL, "Public base URL for QR links")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.IntVar(&c.RatePerMinute, "rate-per-minute", c.RatePerMinute, "Public endpoint requests per minute per client")
	fs.IntVar(&c.RateBurst, "rate-burst", c.RateBurst, "Public endpoint burst size per client")

	return fs.Parse(args)
}
