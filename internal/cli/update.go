package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
	"github.com/teamcutter/aptcache/internal/domain"
	"github.com/teamcutter/aptcache/internal/progress"
)

func newUpdateCmd(g *globalFlags) *cobra.Command {
	var showIgnored bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download package index files from the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			c, err := cache.OpenSources(cfg, cache.Options{Logger: log})
			if err != nil {
				return err
			}

			p := progress.NewText(out(cmd), cfg.PulseInterval)
			p.ShowIgnoredErrors = showIgnored

			if err := c.Update(cmd.Context(), p); err != nil {
				var fe *domain.FetchError
				if errors.As(err, &fe) && len(fe.Items) > 0 {
					return fmt.Errorf("%d index files failed to download", len(fe.Items))
				}
				return err
			}

			fresh, err := c.Reopen()
			if err != nil {
				return err
			}

			n := 0
			for range fresh.Packages(cache.PackageSort{}.Upgradable()) {
				n++
			}
			if n > 0 {
				fmt.Fprintf(out(cmd), "%s %d packages can be upgraded. Run %s to see them.\n",
					yellow("●"), n, cyan("aptcache list --upgradable"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showIgnored, "show-ignored", false, "Print error text for ignored index files")
	return cmd
}
