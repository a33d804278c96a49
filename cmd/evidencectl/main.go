// Command evidencectl replays trigger events and inspects the audit log
// outside of the event pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/app"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/pkg/config"

	_ "github.com/lib/pq"
)

var (
	jsonOutput bool
	rootCmd    = &cobra.Command{
		Use:   "evidencectl",
		Short: "Operate the ECS exec evidence pipeline by hand",
		Long: `evidencectl runs the session handlers against a saved event, looks up
the session-start audit record for a session id, and bootstraps the
attestation flow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}

// loadRuntime builds the application from the environment. Logs go to stderr
// so command output stays parseable.
func loadRuntime(ctx context.Context) (*app.Runtime, error) {
	cfg := config.Load()
	app.NewLogger(os.Stderr, cfg.LogLevel)
	return app.New(ctx, cfg)
}

// printResult writes res and reports a failed result as an error.
func printResult(w io.Writer, res domain.Result) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if res.OK() {
		fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), res.Message)
		if res.SessionID != "" {
			fmt.Fprintf(w, "  session: %s\n", res.SessionID)
		}
	} else {
		fmt.Fprintf(w, "%s %s\n", color.RedString("✗"), res.Message)
		fmt.Fprintf(w, "  session: %s\n", res.SessionID)
		fmt.Fprintf(w, "  step:    %s\n", color.YellowString(res.Step))
		fmt.Fprintf(w, "  class:   %s\n", res.ErrorClass)
	}
	if !res.OK() {
		return fmt.Errorf("invocation failed at %s", res.Step)
	}
	return nil
}
