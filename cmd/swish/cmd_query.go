package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/angrysky56/docker-swish-mcp/internal/files"
	"github.com/angrysky56/docker-swish-mcp/internal/wire"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	bindingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var queryConsults []string

var queryCmd = &cobra.Command{
	Use:   "query [goal]",
	Short: "Execute one Prolog query in a fresh session",
	Long: `Starts a session, optionally consults knowledge-base files, runs the
goal and prints the outcome.

Ground goals print yes/no; goals with variables print every solution.

Examples:
  swish query "member(X, [a,b,c])."
  swish query --consult family "grandparent(tom, Who)."`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive Prolog session",
	Long: `Opens a persistent interactive session against the interpreter.

Everything consulted or asserted stays loaded until the session ends.
Type a goal per line; "halt." or Ctrl-D exits.`,
	RunE: runRepl,
}

var consultCmd = &cobra.Command{
	Use:   "consult [file...]",
	Short: "Verify knowledge-base files load cleanly",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConsult,
}

func init() {
	queryCmd.Flags().StringSliceVar(&queryConsults, "consult", nil, "Knowledge-base files to consult before the goal")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mgr := newSession()
	defer mgr.Shutdown()

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	logger.Debug("session started", zap.String("target", mgr.Status().Target))

	for _, name := range queryConsults {
		if res := mgr.Consult(ctx, name); !res.OK() {
			return fmt.Errorf("consult %s failed: %s", name, res.Err)
		}
	}

	res := mgr.Execute(ctx, args[0], 0)
	printResult(res)
	if res.Type == wire.ResultError {
		os.Exit(1)
	}
	return nil
}

func runConsult(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mgr := newSession()
	defer mgr.Shutdown()

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	for _, name := range args {
		res := mgr.Consult(ctx, name)
		if res.OK() {
			fmt.Printf("%s %s\n", successStyle.Render("ok"), name)
		} else {
			fmt.Printf("%s %s: %s\n", errorStyle.Render("FAIL"), name, res.Err)
			os.Exit(1)
		}
	}
	return nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mgr := newSession()
	defer mgr.Shutdown()

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	// Keep a live index of the knowledge-base directory so "files."
	// reflects edits made while the repl is open.
	var watcher *files.Watcher
	if cfg.Files.Watch {
		if store, err := newStore(); err == nil {
			if watcher, err = files.NewWatcher(store); err == nil {
				if err := watcher.Start(ctx); err != nil {
					watcher = nil
				} else {
					defer watcher.Stop()
				}
			}
		}
	}

	st := mgr.Status()
	fmt.Println(mutedStyle.Render("connected: " + st.Target))
	fmt.Println(mutedStyle.Render(`type a goal per line; "files." lists knowledge bases; "halt." or Ctrl-D exits`))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("?- "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "halt." || line == "halt" {
			return nil
		}
		if line == "files." && watcher != nil {
			for _, info := range watcher.Index() {
				fmt.Printf("%-32s %8d bytes\n", info.Name, info.Size)
			}
			continue
		}
		printResult(mgr.Execute(ctx, line, 0))
	}
}

// printResult renders a query outcome the way swipl's toplevel would,
// one binding line per solution.
func printResult(res wire.Result) {
	switch res.Type {
	case wire.ResultSolutions:
		for _, sol := range res.Solutions {
			fmt.Println(bindingStyle.Render(sol))
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("%d solution(s)", len(res.Solutions))))
	case wire.ResultSimpleSuccess:
		fmt.Println(successStyle.Render("yes"))
	case wire.ResultFailure:
		fmt.Println(failureStyle.Render("no"))
	case wire.ResultError:
		fmt.Println(errorStyle.Render("error: " + res.Err))
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
