package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/shopwatch/internal/utils"
)

// pollCmd implements: shopwatch poll
// Runs a single scrape cycle. Meant to be driven by cron or a CI schedule,
// so any failure is fatal.
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Scrape the shop once and report changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'shopwatch poll --help'", args[0])
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		deps, err := buildRunner(cmd, dryRun)
		if err != nil {
			return err
		}
		defer deps.Close()

		result, err := deps.Runner.Run(cmd.Context())
		if err != nil {
			deps.Close()
			utils.Log.Fatalf("Cycle failed: %v", err)
		}

		if dryRun {
			utils.Log.Info("Dry run: nothing was delivered or stored")
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().Bool("dry-run", false, "Print the reports without notifying or updating the snapshot")
}
