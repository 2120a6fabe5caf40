package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mkarpenko/livetrack/internal/logger"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultEnvironment   = logger.EnvProduction
	defaultSweepInterval = time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the livetrack service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret keys for symmetric token signing, distinct per credential kind
	AccessSecret  string
	RefreshSecret string

	// Purge all refresh tokens of the user at login,
	// so logins from a new device kill prior sessions
	SingleSession bool

	// How often the background sweep reconciles the refresh token table
	SweepInterval time.Duration

	// Disconnect idle relay connections, zero keeps them open forever
	RelayIdleTimeout time.Duration

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		SingleSession: true,
		SweepInterval: defaultSweepInterval,
		Environment:   defaultEnvironment,
	}
}

// Load variables from '.env' file (should be located at working directory)
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
	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseBool(value); err == nil {
				*o = parsed
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if parsed, err := time.ParseDuration(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":        setString(&c.ListenAddr),
		"DATABASE_URI":       setString(&c.DatabaseDSN),
		"ACCESS_SECRET":      setString(&c.AccessSecret),
		"REFRESH_SECRET":     setString(&c.RefreshSecret),
		"LOG_LEVEL":          setString(&c.LogLevel),
		"ENVIRONMENT":        setString(&c.Environment),
		"SINGLE_SESSION":     setBool(&c.SingleSession),
		"SWEEP_INTERVAL":     setDuration(&c.SweepInterval),
		"RELAY_IDLE_TIMEOUT": setDuration(&c.RelayIdleTimeout),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("livetrack", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret key for access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret key for refresh tokens")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.BoolVar(&c.SingleSession, "single-session", c.SingleSession, "Purge prior refresh tokens at login")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "Refresh token sweep interval")
	fs.DurationVar(&c.RelayIdleTimeout, "relay-idle-timeout", c.RelayIdleTimeout, "Relay idle disconnect, 0 disables")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("both ACCESS_SECRET and REFRESH_SECRET must be set")
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_URI must be set")
	}

	return nil
}
