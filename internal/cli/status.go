package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chatwarden/internal/provider"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider readiness and the violation counter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		printStatus(a)
		return nil
	},
}

func printStatus(a *app) {
	fmt.Printf("%sProviders%s\n", bold, reset)
	for _, id := range a.registry.IDs() {
		st := a.registry.Status(id)
		color := dim
		switch st.Kind {
		case provider.StatusReady:
			color = green
		case provider.StatusError:
			color = red
		}
		marker := " "
		if id == a.cfg.Provider {
			marker = "*"
		}
		fmt.Printf("  %s %-12s %s%s%s\n", marker, id, color, st, reset)
	}
	fmt.Printf("%sViolations%s this session: %d\n", bold, reset, a.filter.Violations())
}
