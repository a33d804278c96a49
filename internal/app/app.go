// Package app wires the configured adapters into a session service. Every
// entry point (HTTP server, Lambda, CLI) builds its runtime here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/adapter/kosli"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/adapter/platform"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/adapter/store"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/service"
	"github.com/arturoeanton/go-ecs-exec-evidence/pkg/config"
)

// Registry is an attestation back end: the API client or the CLI wrapper.
type Registry interface {
	port.EvidenceRegistry
	port.Attester
	EnsureFlow(ctx context.Context, tmpl domain.TrailTemplate) error
}

// Runtime holds the wired application.
type Runtime struct {
	Config   *config.Config
	Service  *service.SessionService
	Locator  *service.Locator
	Registry Registry
	Ledger   port.InvocationReader

	closers []io.Closer
}

// NewLogger builds a JSON logger at level and installs it as the default.
func NewLogger(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug/info/warn/error onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRegistry returns the attestation back end selected by cfg.KosliMode.
func NewRegistry(cfg *config.Config) Registry {
	opts := kosli.Options{
		Host:       cfg.KosliHost,
		Org:        cfg.KosliOrg,
		Token:      cfg.KosliAPIToken,
		Flow:       cfg.KosliFlow,
		MaxRetries: cfg.KosliMaxRetries,
	}
	if cfg.KosliMode == config.KosliModeCLI {
		return kosli.NewCLI(cfg.KosliCLIPath, opts)
	}
	return kosli.NewClient(opts)
}

// New validates cfg and wires every adapter.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	awsCfg, err := platform.LoadConfig(ctx, platform.Credentials{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.AWSRegion,
	})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Registry: NewRegistry(cfg)}

	var recorder port.InvocationRecorder
	if cfg.LedgerEnabled() {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pg)
		recorder, rt.Ledger = pg, pg
	} else {
		mem := store.NewMemoryLedger(0)
		recorder, rt.Ledger = mem, mem
	}

	rt.Locator = service.NewLocator(
		platform.NewAuditSourceFromConfig(awsCfg, cfg.LocatorLookback),
		service.LocatorConfig{
			Timeout:  cfg.LocatorTimeout,
			Interval: cfg.LocatorPollInterval,
			MaxPages: cfg.LocatorMaxPages,
		},
	)

	rt.Service = service.NewSessionService(service.Dependencies{
		Registry: rt.Registry,
		Attester: rt.Registry,
		Fetcher:  platform.NewObjectFetcherFromConfig(awsCfg),
		Tasks:    platform.NewTaskDescriberFromConfig(awsCfg),
		Locator:  rt.Locator,
		Recorder: recorder,
	}, service.OptionsFromConfig(cfg))

	slog.Info("runtime ready",
		"flow", cfg.KosliFlow,
		"kosli_mode", cfg.KosliMode,
		"trail_key", cfg.TrailKey,
		"ledger", cfg.LedgerEnabled(),
		"region", awsCfg.Region,
	)
	return rt, nil
}

// Close releases what New opened.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
