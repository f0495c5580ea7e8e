package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"chatwarden/internal/filter"
)

const (
	red    = "\033[0;31m"
	green  = "\033[0;32m"
	cyan   = "\033[0;36m"
	yellow = "\033[1;33m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	reset  = "\033[0m"
)

// runChat drives the interactive loop: "!" routes to the command
// executor, everything else to the provider router.
func runChat(cmd *cobra.Command, args []string) error {
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

	go a.tracker.Run(ctx)
	a.watchPatterns(ctx)

	fmt.Printf("%schatwarden%s — provider %s%s%s. Type %s/help%s for commands.\n",
		bold, reset, cyan, a.cfg.Provider, reset, dim, reset)

	scanner := newInputScanner(os.Stdin)
	for {
		fmt.Printf("%s>%s ", green, reset)
		if !scanner.Scan() {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a.tracker.Touch(a.cfg.User, "input")

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			printHelp()
		case line == "/status":
			printStatus(a)
		case line == "/report":
			printReport(a)
		case strings.HasPrefix(line, "!"):
			runCommand(ctx, a, strings.TrimPrefix(line, "!"))
		default:
			runQuery(ctx, a, line)
		}
	}
	return scanner.Err()
}

// newInputScanner returns a line scanner whose buffer comfortably
// exceeds the filter's input ceiling, so an oversized paste is rejected
// by the filter instead of killing the loop.
func newInputScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	return scanner
}

func runCommand(ctx context.Context, a *app, command string) {
	out, err := a.guard.Execute(ctx, command)
	if err != nil {
		if filter.IsSecurity(err) {
			fmt.Printf("%sblocked:%s %v\n", red, reset, err)
		} else {
			fmt.Printf("%srejected:%s %v\n", yellow, reset, err)
		}
		return
	}
	fmt.Println(out)
}

func runQuery(ctx context.Context, a *app, prompt string) {
	out, err := a.router.Query(ctx, a.cfg.Provider, prompt)
	if err != nil {
		if filter.IsSecurity(err) {
			fmt.Printf("%sblocked:%s %v\n", red, reset, err)
		} else {
			fmt.Printf("%serror:%s %v\n", yellow, reset, err)
		}
		return
	}
	fmt.Println(out)
}

func printHelp() {
	fmt.Println("  !<command>   run an allowlisted system command")
	fmt.Println("  /status      provider readiness and violation count")
	fmt.Println("  /report      security report (violations, audit tail)")
	fmt.Println("  /quit        exit")
}
