package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger a sweep pass now",
	Long: `Trigger one sweep pass outside the daily schedule. The sweep runs
synchronously; the command prints its result when it completes. Overlap with
a scheduled sweep is safe.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		secret := viper.GetString("secret")

		if secret == "" {
			cmd.Println("System secret not found. Please set it using the --secret flag or the FINSWEEP_SECRET environment variable")
			return
		}

		client := NewSweepClient(url, secret)
		result, err := client.TriggerSweep()
		if err != nil {
			cmd.Printf("Sweep failed: %v\n", err)
			return
		}

		cmd.Printf("Sweep completed (execution %s)\n", result.ExecutionID)
		cmd.Printf("  Processed: %d\n", result.Processed)
		cmd.Printf("  Skipped:   %d\n", result.Skipped)
		cmd.Printf("  Failed:    %d\n", result.Failed)
		cmd.Printf("  Generated: %d\n", result.Generated)
		for _, re := range result.Errors {
			cmd.Printf("  %s✗%s rule %s: %s\n", colorRed, colorReset, re.RuleID, re.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
