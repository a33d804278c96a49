package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/app"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/service"
	"github.com/arturoeanton/go-ecs-exec-evidence/pkg/config"

	_ "github.com/lib/pq"
)

// envelope converts the runtime's event type into the service's.
func envelope(e events.CloudWatchEvent) domain.Envelope {
	env := domain.Envelope{
		ID:         e.ID,
		DetailType: e.DetailType,
		Source:     e.Source,
		Region:     e.Region,
		Detail:     e.Detail,
	}
	if !e.Time.IsZero() {
		env.Time = e.Time.Format(time.RFC3339)
	}
	return env
}

// handler returns the result as the invocation payload. Transient failures
// are also returned as an error so the runtime redelivers the event; every
// other failure is reported through the result alone.
func handler(svc *service.SessionService) func(context.Context, events.CloudWatchEvent) (domain.Result, error) {
	return func(ctx context.Context, e events.CloudWatchEvent) (domain.Result, error) {
		res := svc.Dispatch(ctx, envelope(e))
		// Unlike the status-only contract, a transient failure is surfaced to
		// the runtime so it is retried. Every step is idempotent.
		if res.ErrorClass == domain.ErrorClassTransient {
			return res, fmt.Errorf("%s failed at %s: %s", e.DetailType, res.Step, res.Message)
		}
		return res, nil
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	app.NewLogger(os.Stdout, cfg.LogLevel)

	rt, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler(rt.Service))
}
