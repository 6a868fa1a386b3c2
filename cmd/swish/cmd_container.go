package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logsTail   int
	statusJSON bool
)

var containerCmd = &cobra.Command{
	Use:   "container",
	Short: "Manage the SWISH container",
}

var containerUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the SWISH container and wait until ready",
	RunE:  runContainerUp,
}

var containerDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the SWISH container",
	RunE:  runContainerDown,
}

var containerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show SWISH container state",
	RunE:  runContainerStatus,
}

var containerLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show SWISH container logs",
	RunE:  runContainerLogs,
}

func init() {
	containerLogsCmd.Flags().IntVar(&logsTail, "tail", 100, "Number of log lines to show")
	containerStatusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")

	containerCmd.AddCommand(containerUpCmd)
	containerCmd.AddCommand(containerDownCmd)
	containerCmd.AddCommand(containerStatusCmd)
	containerCmd.AddCommand(containerLogsCmd)
}

func runContainerUp(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mgr := newContainerManager()
	if err := mgr.Up(ctx); err != nil {
		return err
	}
	fmt.Printf("%s %s at %s\n", successStyle.Render("ready"), mgr.Name(), mgr.URL())
	fmt.Println(mutedStyle.Render("knowledge base mounted from " + cfg.DataDir()))
	return nil
}

func runContainerDown(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mgr := newContainerManager()
	if err := mgr.Down(ctx); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", failureStyle.Render("stopped"), mgr.Name())
	return nil
}

func runContainerStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	mgr := newContainerManager()
	st, err := mgr.Inspect(ctx)
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	switch {
	case st.Running:
		fmt.Printf("%s %s (%s) since %s\n", successStyle.Render("running"), st.Name, st.Image, st.StartedAt)
		fmt.Println(mutedStyle.Render(st.URL))
	case st.Exists:
		fmt.Printf("%s %s\n", failureStyle.Render("stopped"), st.Name)
	default:
		fmt.Printf("%s %s\n", mutedStyle.Render("absent"), st.Name)
	}
	return nil
}

func runContainerLogs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	out, err := newContainerManager().Logs(ctx, logsTail)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
