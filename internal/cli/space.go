package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
	"github.com/teamcutter/aptcache/internal/units"
)

func newSpaceCmd(g *globalFlags) *cobra.Command {
	var (
		install   []string
		remove    []string
		reinstall []string
		upgrade   bool
	)

	cmd := &cobra.Command{
		Use:   "space",
		Short: "Estimate the disk space a set of changes needs or frees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			marks := make(map[string]cache.Mark)
			for _, n := range install {
				marks[n] = cache.MarkInstall
			}
			for _, n := range remove {
				marks[n] = cache.MarkDelete
			}
			for _, n := range reinstall {
				marks[n] = cache.MarkReinstall
			}

			c, _, err := g.open(cmd, cache.Options{Marks: marks, MarkUpgrades: upgrade})
			if err != nil {
				return err
			}
			for name := range marks {
				if _, err := lookup(c, name); err != nil {
					return err
				}
			}

			w := out(cmd)
			changes := c.Changes()
			if len(changes) == 0 {
				fmt.Fprintf(w, "%s Nothing to do\n", dim("○"))
				return nil
			}

			for _, p := range changes {
				fmt.Fprintf(w, "%s %s\n", changeMarker(p), p.FullName(true))
			}
			fmt.Fprintln(w)

			switch s := c.DiskSize().(type) {
			case cache.Free:
				fmt.Fprintf(w, "After this operation, %s disk space will be freed.\n", bold(units.Str(s.Bytes(), units.Decimal)))
			case cache.Require:
				fmt.Fprintf(w, "After this operation, %s of additional disk space will be used.\n", bold(units.Str(s.Bytes(), units.Decimal)))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&install, "install", "i", nil, "Mark packages for installation")
	cmd.Flags().StringSliceVarP(&remove, "remove", "r", nil, "Mark packages for removal")
	cmd.Flags().StringSliceVar(&reinstall, "reinstall", nil, "Mark packages for reinstallation")
	cmd.Flags().BoolVarP(&upgrade, "upgrade", "u", false, "Mark every upgradable package")
	return cmd
}

func changeMarker(p cache.Package) string {
	switch {
	case p.MarkedDelete():
		return red("- remove   ")
	case p.MarkedNewInstall():
		return green("+ install  ")
	case p.MarkedUpgrade():
		return cyan("↑ upgrade  ")
	case p.MarkedDowngrade():
		return yellow("↓ downgrade")
	case p.MarkedReinstall():
		return yellow("↻ reinstall")
	default:
		return dim("  keep     ")
	}
}
