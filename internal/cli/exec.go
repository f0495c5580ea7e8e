package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"chatwarden/internal/filter"
)

func init() {
	rootCmd.AddCommand(execCmd)
}

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Run one allowlisted command through the guard",
	Long: "Validates the command against the input filter, the allowlist, and\n" +
		"the argument restrictions before spawning it. Exit code 77 indicates\n" +
		"a security rejection.",
	Args: cobra.MinimumNArgs(1),
	RunE: runExecOnce,
}

func runExecOnce(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.guard.Execute(ctx, strings.Join(args, " "))
	if err != nil {
		if filter.IsSecurity(err) {
			fmt.Fprintf(os.Stderr, "blocked: %v\n", err)
			os.Exit(77)
		}
		return err
	}

	fmt.Println(out)
	return nil
}
