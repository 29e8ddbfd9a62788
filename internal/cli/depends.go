package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
)

func newDependsCmd(g *globalFlags) *cobra.Command {
	var recurse bool

	cmd := &cobra.Command{
		Use:   "depends <package>",
		Short: "Show the relationships declared by a package's candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			p, err := lookup(c, args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			seen := map[int32]bool{}
			queue := []cache.Package{p}
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				if seen[cur.ID()] {
					continue
				}
				seen[cur.ID()] = true

				v, ok := cur.Candidate()
				if !ok {
					fmt.Fprintf(w, "%s %s\n", dim("○"), cur.FullName(true))
					continue
				}
				fmt.Fprintf(w, "%s\n", bold(cur.FullName(true)))

				deps := v.DependsMap()
				for _, kind := range showRelations {
					for _, group := range deps[kind] {
						for i, base := range group.BaseDeps {
							prefix := " "
							if i < len(group.BaseDeps)-1 {
								prefix = "|"
							}
							fmt.Fprintf(w, " %s%s: %s\n", prefix, relationField(kind), base.String())

							if !recurse || (kind != cache.Depends && kind != cache.PreDepends) {
								continue
							}
							if t, ok := base.TargetPackage(); ok && !seen[t.ID()] {
								queue = append(queue, t)
							}
						}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Follow Depends and Pre-Depends recursively")
	return cmd
}

func newRdependsCmd(g *globalFlags) *cobra.Command {
	var installedOnly bool

	cmd := &cobra.Command{
		Use:   "rdepends <package>",
		Short: "Show candidates that declare a relationship on a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			target, err := lookup(c, args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			fmt.Fprintf(w, "%s\n%s\n", bold(target.FullName(true)), cyan("Reverse Depends:"))

			sort := cache.PackageSort{}
			if installedOnly {
				sort = sort.Installed()
			}
			for p := range c.Packages(sort) {
				v, ok := p.Candidate()
				if installedOnly {
					v, ok = p.Installed()
				}
				if !ok {
					continue
				}
				deps := v.DependsMap()
				for _, kind := range showRelations {
					for _, group := range deps[kind] {
						for _, base := range group.BaseDeps {
							if t, ok := base.TargetPackage(); ok && t.ID() == target.ID() {
								fmt.Fprintf(w, "  %s: %s\n", relationField(kind), p.FullName(true))
							}
						}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&installedOnly, "installed", false, "Only consider installed versions")
	return cmd
}

func newProvidesCmd(g *globalFlags) *cobra.Command {
	var candidateOnly bool

	cmd := &cobra.Command{
		Use:   "provides <name>",
		Short: "Show packages providing a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			p, err := lookup(c, args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			found := false
			for prov := range c.Provides(p, false) {
				v := prov.Version
				if candidateOnly && !v.IsCandidate() {
					continue
				}
				found = true
				fmt.Fprintf(w, "%s %s %s %s\n", green("●"), bold(v.Package().FullName(true)), v.Version(), dim("provides "+prov.Name))
			}
			if !found {
				fmt.Fprintf(w, "%s Nothing provides %s\n", dim("○"), p.FullName(true))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&candidateOnly, "candidate", false, "Only candidate versions")
	return cmd
}
