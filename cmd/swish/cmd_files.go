package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/angrysky56/docker-swish-mcp/internal/files"
)

var fileOverwrite bool

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage knowledge-base files",
	Long: `Manages the .pl files in the knowledge-base directory. The directory
is mounted into the SWISH container at /data, so names here are the
names sessions consult.`,
}

var filesCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a knowledge-base file from stdin or --content",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesCreate,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge-base files",
	RunE:  runFilesList,
}

var filesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a knowledge-base file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesShow,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a knowledge-base file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDelete,
}

var fileContent string

func init() {
	filesCreateCmd.Flags().BoolVar(&fileOverwrite, "overwrite", false, "Replace the file if it exists")
	filesCreateCmd.Flags().StringVar(&fileContent, "content", "", "File content (default: read stdin)")

	filesCmd.AddCommand(filesCreateCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesShowCmd)
	filesCmd.AddCommand(filesDeleteCmd)
}

func newStore() (*files.Store, error) {
	return files.NewStore(cfg.DataDir())
}

func runFilesCreate(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	content := fileContent
	if content == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	name, err := store.Create(args[0], content, fileOverwrite)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", successStyle.Render("wrote"), name)
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	infos, err := store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println(mutedStyle.Render("no knowledge-base files"))
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%-32s %8d  %s\n", info.Name, info.Size, info.Modified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runFilesShow(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	content, err := store.Read(args[0])
	if err != nil {
		return err
	}
	fmt.Print(content)
	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", failureStyle.Render("deleted"), args[0])
	return nil
}
