package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sweep executions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSweepClient(viper.GetString("url"), viper.GetString("secret"))

		executions, err := client.GetHistory(historyLimit)
		if err != nil {
			cmd.Printf("Failed to fetch history: %v\n", err)
			return
		}

		if len(executions) == 0 {
			cmd.Println("No sweep executions recorded yet")
			return
		}

		for _, e := range executions {
			line := colorizeStatus(e.Status) + "  " + e.ID + "  " + e.StartedAt.Format("2006-01-02 15:04:05")
			if e.Result != "" {
				line += "  " + colorDim + e.Result + colorReset
			}
			cmd.Println(line)
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum executions to list")
	rootCmd.AddCommand(historyCmd)
}
