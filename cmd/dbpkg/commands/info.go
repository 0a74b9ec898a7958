package commands

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"tangled.org/simmod.net/dbpkg/dbpf"
)

// NewInfoCommand builds the info subcommand.
func NewInfoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <file.package>",
		Short: "Show package container information",
		Long: `Show package container information

Decodes one container and prints its header fields together with entry
statistics (asset count, compressed count, payload bytes).`,

		Example: `  dbpkg info objects.package
  dbpkg info --json objects.package`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := dbpf.Open(args[0])
			if err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			compressed := 0
			named := 0
			var payloadBytes int64
			for _, e := range pkg.Entries {
				if e.IsDirectory() {
					continue
				}
				if e.Compressed {
					compressed++
				}
				if e.Name != "" {
					named++
				}
				payloadBytes += int64(e.Size())
			}

			if asJSON {
				out := map[string]interface{}{
					"file":                args[0],
					"file_size":           info.Size(),
					"index_major_version": pkg.Header.IndexMajorVersion,
					"index_minor_version": pkg.Header.IndexMinorVersion,
					"entries":             pkg.AssetCount(),
					"compressed_entries":  compressed,
					"named_entries":       named,
					"payload_bytes":       payloadBytes,
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("File: %s (%s)\n\n", args[0], formatBytes(info.Size()))
			fmt.Println(pkg.Header)
			fmt.Println()
			fmt.Printf("Entries:            %d\n", pkg.AssetCount())
			fmt.Printf("Compressed entries: %d\n", compressed)
			fmt.Printf("Named entries:      %d\n", named)
			fmt.Printf("Payload bytes:      %s\n", formatBytes(payloadBytes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
