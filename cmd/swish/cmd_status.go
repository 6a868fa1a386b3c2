package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session target, container and knowledge-base state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(promptStyle.Render("swish status"))
	fmt.Printf("workspace:      %s\n", cfg.Workspace)
	fmt.Printf("query timeout:  %s\n", cfg.GetQueryTimeout())
	if direct {
		fmt.Printf("target:         local swipl\n")
	} else {
		fmt.Printf("target:         container %s\n", cfg.Container.Name)
	}

	cm := newContainerManager()
	if !cm.IsAvailable() {
		fmt.Printf("container:      %s\n", mutedStyle.Render("docker unavailable"))
	} else if st, err := cm.Inspect(ctx); err == nil {
		switch {
		case st.Running:
			fmt.Printf("container:      %s (%s)\n", successStyle.Render("running"), st.URL)
		case st.Exists:
			fmt.Printf("container:      %s\n", failureStyle.Render("stopped"))
		default:
			fmt.Printf("container:      %s\n", mutedStyle.Render("absent"))
		}
	}

	store, err := newStore()
	if err != nil {
		return err
	}
	infos, err := store.List()
	if err != nil {
		return err
	}
	fmt.Printf("knowledge base: %d file(s) in %s\n", len(infos), store.Dir())
	for _, info := range infos {
		fmt.Printf("  %s (%d bytes)\n", info.Name, info.Size)
	}
	return nil
}
