package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ensureFlowCmd = &cobra.Command{
	Use:   "ensure-flow",
	Short: "Create or update the flow and its trail template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := loadRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.Registry.EnsureFlow(ctx, rt.Service.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s flow %s ready\n", color.GreenString("✓"), rt.Config.KosliFlow)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ensureFlowCmd)
}
