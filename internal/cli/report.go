package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chatwarden/internal/audit"
)

var reportTail int

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportTail, "tail", 10, "Audit entries to show")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the security report",
	Long:  "Shows persisted violation counts, recent violations, and the tail of the audit trail.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		printReport(a)
		return nil
	},
}

func printReport(a *app) {
	total, err := a.store.ViolationCount()
	if err != nil {
		fmt.Printf("%serror:%s read violation count: %v\n", red, reset, err)
		return
	}
	fmt.Printf("%sViolations%s — session: %d, all time: %d\n",
		bold, reset, a.filter.Violations(), total)

	recent, err := a.store.RecentViolations(5)
	if err == nil && len(recent) > 0 {
		fmt.Printf("%sRecent%s\n", bold, reset)
		for _, v := range recent {
			fmt.Printf("  %s  %s\n", v.At.Format("2006-01-02 15:04:05"), v.Label)
		}
	}

	activity, err := a.store.RecentActivity(5)
	if err == nil && len(activity) > 0 {
		fmt.Printf("%sActivity%s\n", bold, reset)
		for _, act := range activity {
			fmt.Printf("  %s  %-10s %s\n",
				act.At.Format("2006-01-02 15:04:05"), act.User, act.Action)
		}
	}

	entries, err := audit.Tail(a.cfg.AuditPath, reportTail)
	if err != nil {
		fmt.Printf("%serror:%s read audit trail: %v\n", red, reset, err)
		return
	}
	if len(entries) == 0 {
		return
	}
	fmt.Printf("%sAudit trail%s (last %d)\n", bold, reset, len(entries))
	for _, e := range entries {
		color := dim
		if e.Decision == "deny" {
			color = red
		}
		fmt.Printf("  %s  %-9s %-12s %s%s%s %s\n",
			e.Timestamp, e.Event, e.Subject, color, e.Decision, reset, e.Reason)
	}
}
