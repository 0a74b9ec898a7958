package commands

import (
	"os"

	"github.com/spf13/cobra"
	"tangled.org/simmod.net/dbpkg/cmd/dbpkg/ui"
	"tangled.org/simmod.net/dbpkg/dedup"
)

// NewDedupCommand builds the dedup subcommand.
func NewDedupCommand() *cobra.Command {
	var (
		catalogPath string
		logPath     string
	)

	cmd := &cobra.Command{
		Use:     "dedup <directory>",
		Aliases: []string{"cleanup"},
		Short:   "Remove assets superseded by newer packs",
		Long: `Remove assets superseded by newer packs

Walks every pack subtree found under the given installation directory,
newest release first, and deletes from older packs every entry whose key
also exists in the same logical file of a newer pack. Rewritten files
are replaced atomically; files left with no assets are deleted, and
directories emptied by the run are pruned.

Supersession is decided by key identity alone: a matching key in a newer
pack always wins, payload content is never compared.

The transcript is printed to the console and appended to a log file
that is truncated at the start of each run.`,

		Example: `  # Deduplicate an installation with the built-in pack catalog
  dbpkg dedup "/games/sims2"

  # Use a custom pack catalog
  dbpkg dedup --catalog packs.json "/games/sims2"

  # Write the transcript somewhere else
  dbpkg dedup --log run.log "/games/sims2"`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newTeeLogger(logPath)
			if err != nil {
				return err
			}
			defer logger.Close()

			catalog := dedup.DefaultCatalog()
			if catalogPath != "" {
				if catalog, err = dedup.LoadCatalog(catalogPath); err != nil {
					return err
				}
			}

			cfg := &dedup.Config{
				BaseDir: args[0],
				Catalog: catalog,
				Logger:  logger,
			}

			var bar *ui.ProgressBar
			if isTTY(os.Stdout) {
				cfg.Progress = func(done, total int) {
					if bar == nil {
						bar = ui.NewProgressBar(total)
					}
					bar.Set(done)
				}
			}

			engine, err := dedup.New(cfg)
			if err != nil {
				return err
			}

			logger.Println("Deleting entries:")
			res, err := engine.Run()
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			logger.Printf("Removed %d entries (%d files rewritten, %d files deleted)",
				res.EntriesRemoved, res.FilesRewritten, res.FilesDeleted)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Pack catalog JSON file (default: built-in catalog)")
	cmd.Flags().StringVar(&logPath, "log", "dbpkg.log", "Transcript log file (empty to disable)")

	return cmd
}
