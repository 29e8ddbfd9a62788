package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
)

func newPolicyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "policy <package>...",
		Short: "Show the candidate selection for packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			w := out(cmd)
			for _, name := range args {
				p, err := lookup(c, name)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s:\n", bold(p.FullName(true)))
				installed, candidate := "(none)", "(none)"
				if v, ok := p.Installed(); ok {
					installed = v.Version()
				}
				if v, ok := p.Candidate(); ok {
					candidate = v.Version()
				}
				fmt.Fprintf(w, "  %s %s\n", cyan("Installed:"), installed)
				fmt.Fprintf(w, "  %s %s\n", cyan("Candidate:"), candidate)
				fmt.Fprintf(w, "  %s\n", cyan("Version table:"))

				for v := range p.Versions() {
					marker := "    "
					if v.IsInstalled() {
						marker = " " + green("***")
					}
					fmt.Fprintf(w, "%s %s %d\n", marker, v.Version(), v.Priority())
					for _, f := range v.PackageFiles() {
						if f.Site == "" {
							fmt.Fprintf(w, "        %s\n", dim(f.Filename))
							continue
						}
						fmt.Fprintf(w, "        %s %s/%s %s %s\n", f.Site, f.Archive, f.Component, f.Arch, dim("Packages"))
					}
				}
			}
			return nil
		},
	}
}
