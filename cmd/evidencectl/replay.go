package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a session handler against a saved event",
}

var replaySessionStartedCmd = &cobra.Command{
	Use:   "session-started FILE",
	Short: "Report the identities of a session-start event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return replay(cmd, args[0], func(ctx context.Context, h handlers, detail json.RawMessage) domain.Result {
			return h.HandleSessionStarted(ctx, detail)
		})
	},
}

var replayLogDeliveredCmd = &cobra.Command{
	Use:   "log-delivered FILE",
	Short: "Attach the transcript named by a log-delivered event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return replay(cmd, args[0], func(ctx context.Context, h handlers, detail json.RawMessage) domain.Result {
			return h.HandleLogDelivered(ctx, detail)
		})
	},
}

func init() {
	replayCmd.AddCommand(replaySessionStartedCmd, replayLogDeliveredCmd)
	rootCmd.AddCommand(replayCmd)
}

type handlers interface {
	HandleSessionStarted(ctx context.Context, detail json.RawMessage) domain.Result
	HandleLogDelivered(ctx context.Context, detail json.RawMessage) domain.Result
}

// replay reads an event file, which may hold an envelope or a bare detail,
// and hands its detail to run.
func replay(cmd *cobra.Command, path string, run func(context.Context, handlers, json.RawMessage) domain.Result) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}

	ctx := cmd.Context()
	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	return printResult(cmd.OutOrStdout(), run(ctx, rt.Service, domain.DetailOf(body)))
}
