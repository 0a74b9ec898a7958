package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"tangled.org/simmod.net/dbpkg/dbpf"
)

// NewLsCommand builds the ls subcommand.
func NewLsCommand() *cobra.Command {
	var (
		typeStr     string
		groupStr    string
		instanceStr string
		resourceStr string
		name        string
		noPager     bool
	)

	cmd := &cobra.Command{
		Use:     "ls <file.package>",
		Aliases: []string{"list"},
		Short:   "List entries in a package container",
		Long: `List entries in a package container

Prints one line per entry with its key tuple, payload size, compression
flag, and resolved name. Entries can be filtered by any combination of
the four key components (decimal or 0x hex) and a case-insensitive name
substring.

Output is piped through $PAGER when stdout is a terminal.`,

		Example: `  # Everything
  dbpkg ls objects.package

  # All entries of one type
  dbpkg ls --type 0x42434F4E objects.package

  # Name substring search
  dbpkg ls --name sofa objects.package`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := dbpf.Open(args[0])
			if err != nil {
				return err
			}

			var q dbpf.Query
			for _, f := range []struct {
				raw  string
				dest **uint32
			}{
				{typeStr, &q.Type},
				{groupStr, &q.Group},
				{instanceStr, &q.Instance},
				{resourceStr, &q.Resource},
			} {
				if f.raw == "" {
					continue
				}
				v, err := parseID(f.raw)
				if err != nil {
					return err
				}
				*f.dest = dbpf.ID(v)
			}
			q.Name = name

			entries := pkg.Entries
			if q.Type != nil || q.Group != nil || q.Instance != nil || q.Resource != nil || q.Name != "" {
				entries = dbpf.BuildLookup(pkg).Find(q)
			}

			out, done := pagedOutput(noPager)
			defer done()

			for _, e := range entries {
				flag := " "
				if e.Compressed {
					flag = "c"
				}
				line := fmt.Sprintf("%08X %08X %08X", e.Type, e.Group, e.Instance)
				if e.HasResource {
					line += fmt.Sprintf(" %08X", e.Resource)
				}
				line += fmt.Sprintf("  %s %10d", flag, e.Size())
				if e.Name != "" {
					line += "  " + e.Name
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "\n%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeStr, "type", "", "Filter by type identifier")
	cmd.Flags().StringVar(&groupStr, "group", "", "Filter by group identifier")
	cmd.Flags().StringVar(&instanceStr, "instance", "", "Filter by instance identifier")
	cmd.Flags().StringVar(&resourceStr, "resource", "", "Filter by resource identifier")
	cmd.Flags().StringVar(&name, "name", "", "Filter by name substring")
	cmd.Flags().BoolVar(&noPager, "no-pager", false, "Disable pager (output directly)")

	return cmd
}
