package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sweepctl",
	Short: "Sweepctl is a command line tool for operating the finsweep scheduler",
	Long: `sweepctl is the command-line interface for the finsweep recurring
transaction engine.

Finsweep materializes transactions from recurring rules (subscriptions,
salaries, installment plans) on their due dates. A daily sweep claims each
due rule, generates exactly one transaction per occurrence, and advances the
rule to its next due date.

Common workflows:

  Trigger a sweep outside the daily schedule:
    sweepctl run

  Check scheduler status and the due backlog:
    sweepctl status

  Inspect recent sweep executions:
    sweepctl history --limit 10

  List rules currently due:
    sweepctl due

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    FINSWEEP_URL       Scheduler endpoint (default: http://localhost:7070)
    FINSWEEP_SECRET    System secret for the sweep trigger endpoint`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".sweepctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".sweepctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "FINSWEEP_VARNAME"
	viper.SetEnvPrefix("FINSWEEP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sweepctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:7070", "Finsweep scheduler URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("secret", "s", "", "System secret for internal endpoints")
	viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))
}
