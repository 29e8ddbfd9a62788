package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/lists"
	"github.com/teamcutter/aptcache/internal/state"
	"github.com/teamcutter/aptcache/internal/units"
)

func newCleanCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove downloaded index files and their fetch records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load()
			if err != nil {
				return err
			}

			dir := lists.Open(cfg.ListsDir)
			size, _ := dir.Size()

			if err := dir.Clear(); err != nil {
				return fmt.Errorf("failed to clear lists: %w", err)
			}

			if cfg.StateDB != "" {
				if _, err := os.Stat(cfg.StateDB); err == nil {
					st, err := state.NewSQLite(cfg.StateDB)
					if err != nil {
						return err
					}
					defer st.Close()

					recs, err := st.List()
					if err != nil {
						return err
					}
					for _, rec := range recs {
						if err := st.Remove(rec.URI); err != nil {
							return err
						}
					}
				}
			}

			fmt.Fprintf(out(cmd), "%s Lists cleared (%s freed)\n", green("✓"), units.Str(uint64(size), units.Binary))
			return nil
		},
	}
}
