package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the dbpkg command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dbpkg",
		Short: "Package container maintenance tool",
		Long: `dbpkg - Package Container Maintenance Tool

Reads, inspects, and deduplicates DBPF package containers across the
base product and its add-on packs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("verbose", false, "Verbose output")

	root.AddCommand(NewDedupCommand())
	root.AddCommand(NewInfoCommand())
	root.AddCommand(NewLsCommand())
	root.AddCommand(NewVersionCommand())

	return root
}
