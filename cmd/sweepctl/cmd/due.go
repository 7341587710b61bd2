package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List rules currently due for generation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSweepClient(viper.GetString("url"), viper.GetString("secret"))

		resp, err := client.ListDueRules()
		if err != nil {
			cmd.Printf("Failed to fetch due rules: %v\n", err)
			return
		}

		if resp.Count == 0 {
			cmd.Println("No rules are due")
			return
		}

		cmd.Printf("%s%d rule(s) due%s\n", colorBold, resp.Count, colorReset)
		for _, rule := range resp.Rules {
			cmd.Printf("  %s  %-30s  %s %s  due %s  (%s every %d)\n",
				rule.ID,
				rule.Description,
				rule.Amount,
				rule.Kind,
				rule.NextDueDate.Format("2006-01-02"),
				rule.Frequency,
				rule.Interval,
			)
		}
	},
}

func init() {
	rootCmd.AddCommand(dueCmd)
}
