package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Trail key modes decide what an evidence trail is keyed by.
const (
	TrailKeySession   = "session"
	TrailKeyInitiator = "initiator"
)

// Attestation back ends.
const (
	KosliModeAPI = "api"
	KosliModeCLI = "cli"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port         string
	AppName      string
	EventsAPIKey string
	CORSOrigins  []string

	// Kosli
	KosliHost       string
	KosliOrg        string
	KosliAPIToken   string
	KosliFlow       string
	KosliMode       string // api, cli
	KosliCLIPath    string
	KosliMaxRetries int
	TrailKey        string // session, initiator

	// Evidence names
	StepUserIdentity    string
	StepServiceIdentity string
	StepCommandLogs     string

	// Storage
	LogBucket     string
	LogFileSuffix string
	ScratchDir    string

	// Locator
	LocatorTimeout      time.Duration
	LocatorPollInterval time.Duration
	LocatorMaxPages     int
	LocatorLookback     time.Duration

	// AWS (static credentials are optional)
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Ledger (empty = log only)
	DatabaseURL string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:         envOrDefault("PORT", "3001"),
		AppName:      envOrDefault("APP_NAME", "ECS Exec Evidence"),
		EventsAPIKey: os.Getenv("EVENTS_API_KEY"),
		CORSOrigins:  strings.Split(envOrDefault("CORS_ALLOW_ORIGINS", "*"), ","),

		KosliHost:       envOrDefault("KOSLI_HOST", "https://app.kosli.com"),
		KosliOrg:        os.Getenv("KOSLI_ORG"),
		KosliAPIToken:   os.Getenv("KOSLI_API_TOKEN"),
		KosliFlow:       envOrDefault("KOSLI_FLOW_NAME", envOrDefault("KOSLI_AUDIT_TRAIL_NAME", "ecs-exec-sessions")),
		KosliMode:       envOrDefault("KOSLI_MODE", KosliModeAPI),
		KosliCLIPath:    envOrDefault("KOSLI_CLI_PATH", "./kosli"),
		KosliMaxRetries: envOrDefaultInt("KOSLI_MAX_API_RETRIES", 3),
		TrailKey:        envOrDefault("KOSLI_TRAIL_KEY", TrailKeySession),

		StepUserIdentity:    envOrDefault("KOSLI_STEP_NAME_USER_IDENTITY", "user-identity"),
		StepServiceIdentity: envOrDefault("KOSLI_STEP_NAME_SERVICE_IDENTITY", "service-identity"),
		StepCommandLogs:     envOrDefault("KOSLI_STEP_NAME", "command-logs"),

		LogBucket:     os.Getenv("LOG_BUCKET_NAME"),
		LogFileSuffix: envOrDefault("LOG_FILE_SUFFIX", ".log"),
		ScratchDir:    envOrDefault("SCRATCH_DIR", os.TempDir()),

		LocatorTimeout:      time.Duration(envOrDefaultInt("LOCATOR_TIMEOUT_SECONDS", 300)) * time.Second,
		LocatorPollInterval: time.Duration(envOrDefaultInt("LOCATOR_POLL_INTERVAL_SECONDS", 10)) * time.Second,
		LocatorMaxPages:     envOrDefaultInt("LOCATOR_MAX_PAGES", 10),
		LocatorLookback:     time.Duration(envOrDefaultInt("LOCATOR_LOOKBACK_MINUTES", 60)) * time.Minute,

		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("KOSLI_AWS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("KOSLI_AWS_SECRET_KEY"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel: envOrDefault("LOG_LEVEL", "info"),
	}
}

// Validate reports configuration combinations that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.KosliMode {
	case KosliModeAPI, KosliModeCLI:
	default:
		errs = append(errs, fmt.Errorf("KOSLI_MODE %q: must be %q or %q", c.KosliMode, KosliModeAPI, KosliModeCLI))
	}
	switch c.TrailKey {
	case TrailKeySession, TrailKeyInitiator:
	default:
		errs = append(errs, fmt.Errorf("KOSLI_TRAIL_KEY %q: must be %q or %q", c.TrailKey, TrailKeySession, TrailKeyInitiator))
	}
	if c.KosliFlow == "" {
		errs = append(errs, errors.New("KOSLI_FLOW_NAME must not be empty"))
	}
	if c.KosliOrg == "" {
		errs = append(errs, errors.New("KOSLI_ORG must be set"))
	}
	if c.LocatorTimeout <= 0 {
		errs = append(errs, errors.New("LOCATOR_TIMEOUT_SECONDS must be positive"))
	}
	if c.LocatorPollInterval <= 0 {
		errs = append(errs, errors.New("LOCATOR_POLL_INTERVAL_SECONDS must be positive"))
	} else if c.LocatorPollInterval > c.LocatorTimeout {
		errs = append(errs, errors.New("LOCATOR_POLL_INTERVAL_SECONDS must not exceed LOCATOR_TIMEOUT_SECONDS"))
	}
	return errors.Join(errs...)
}

// LedgerEnabled reports whether invocation outcomes go to Postgres.
func (c *Config) LedgerEnabled() bool {
	return c.DatabaseURL != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
