package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var locateTimeout time.Duration

var locateCmd = &cobra.Command{
	Use:   "locate SESSION-ID",
	Short: "Find the audit record of the command that started a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := loadRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		ev, err := rt.Locator.Locate(ctx, args[0], locateTimeout)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(ev)
		}
		fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), ev.SessionID)
		fmt.Fprintf(w, "  initiator: %s\n", color.CyanString(ev.Initiator))
		fmt.Fprintf(w, "  event:     %s at %s\n", ev.EventID, ev.EventTime.Format(time.RFC3339))
		if ev.TaskArn != "" {
			fmt.Fprintf(w, "  task:      %s\n", ev.TaskArn)
		}
		return nil
	},
}

func init() {
	locateCmd.Flags().DurationVar(&locateTimeout, "timeout", 0, "how long to poll (default LOCATOR_TIMEOUT_SECONDS)")
	rootCmd.AddCommand(locateCmd)
}
