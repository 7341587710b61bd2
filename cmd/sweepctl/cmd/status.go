package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"finsweep/pkg/api"
)

var statusCmd = &cobra.Command{
	Use:   "status [execution_id]",
	Short: "Show scheduler status or one execution",
	Long: `Without arguments, show the scheduler snapshot: running sweeps,
aggregate stats, and the current due backlog. With an execution id, show
that execution's details.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSweepClient(viper.GetString("url"), viper.GetString("secret"))

		if len(args) == 1 {
			execution, err := client.GetExecution(args[0])
			if err != nil {
				cmd.Printf("Failed to fetch execution: %v\n", err)
				return
			}
			printExecution(cmd, *execution)
			return
		}

		status, err := client.GetStatus()
		if err != nil {
			cmd.Printf("Failed to fetch status: %v\n", err)
			return
		}
		printStatus(cmd, status)
	},
}

func printStatus(cmd *cobra.Command, status *api.StatusResponse) {
	cmd.Printf("%sScheduler Status%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sDue backlog:%s  %d rules\n", colorDim, colorReset, status.DueBacklog)
	cmd.Printf("%sRunning:%s      %d sweeps\n", colorDim, colorReset, len(status.Running))

	s := status.Stats
	cmd.Printf("%sExecutions:%s   %d total, %s%d ok%s, %s%d failed%s\n",
		colorDim, colorReset, s.Total, colorGreen, s.Succeeded, colorReset, colorRed, s.Failed, colorReset)
	if s.Total > 0 {
		cmd.Printf("%sAvg runtime:%s  %dms\n", colorDim, colorReset, s.AvgDurationMS)
	}
	if s.LastExecution != nil {
		cmd.Println()
		cmd.Printf("%sLast execution%s\n", colorBold, colorReset)
		printExecution(cmd, *s.LastExecution)
	}
}

func printExecution(cmd *cobra.Command, execution api.ExecutionResponse) {
	icon := statusIcon(execution.Status)
	cmd.Printf("%s %sSweep Execution%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, execution.ID)
	cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(execution.Status))
	cmd.Printf("%sStarted:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(&execution.StartedAt))

	if execution.CompletedAt != nil {
		finished := formatTimeWithRelative(execution.CompletedAt)
		if execution.DurationMS != nil {
			cmd.Printf("%sFinished:%s  %s %s(%dms)%s\n", colorDim, colorReset, finished, colorCyan, *execution.DurationMS, colorReset)
		} else {
			cmd.Printf("%sFinished:%s  %s\n", colorDim, colorReset, finished)
		}
	}
	if execution.Result != "" {
		cmd.Printf("%sResult:%s    %s\n", colorDim, colorReset, execution.Result)
	}
	if execution.Error != "" {
		cmd.Printf("%sError:%s     %s%s%s\n", colorDim, colorReset, colorRed, execution.Error, colorReset)
	}
}

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorAmber = "\033[33m"
	colorCyan  = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "completed":
		return colorGreen + "✓" + colorReset
	case "failed":
		return colorRed + "✗" + colorReset
	case "running":
		return colorAmber + "⏳" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "completed":
		return icon + " " + colorGreen + status + colorReset
	case "failed":
		return icon + " " + colorRed + status + colorReset
	case "running":
		return icon + " " + colorAmber + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
