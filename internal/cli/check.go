package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report broken packages and unsatisfiable dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			w := out(cmd)
			problems := 0
			for p := range c.Packages(cache.PackageSort{}.Installed()) {
				if p.IsNowBroken() {
					problems++
					fmt.Fprintf(w, "%s %s has unmet dependencies\n", red("✗"), bold(p.FullName(true)))
				}
			}

			for b := range c.BrokenDependencies() {
				problems++
				fmt.Fprintf(w, "%s %s %s: %s %s\n", yellow("●"), bold(b.Version.Package().FullName(true)),
					b.Version.Version(), relationField(b.Dependency.Kind), b.Dependency.String())
			}

			if problems > 0 {
				return fmt.Errorf("%d dependency problems found", problems)
			}
			fmt.Fprintf(w, "%s No dependency problems\n", green("✓"))
			return nil
		},
	}
}
