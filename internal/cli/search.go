package cli

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
)

// searchSource exposes candidates to fuzzy matching. Names and summaries
// are matched as one string so either can hit.
type searchSource []cache.Package

func (s searchSource) String(i int) string {
	p := s[i]
	if v, ok := p.Candidate(); ok {
		return p.Name() + " " + v.Summary()
	}
	return p.Name()
}

func (s searchSource) Len() int { return len(s) }

func newSearchCmd(g *globalFlags) *cobra.Command {
	var (
		show      int
		namesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search package names and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			var pkgs searchSource
			for p := range c.Packages(cache.PackageSort{}) {
				pkgs = append(pkgs, p)
			}

			stop := withSpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Searching %s...", args[0]))
			var matches fuzzy.Matches
			if namesOnly {
				names := make([]string, len(pkgs))
				for i, p := range pkgs {
					names[i] = p.Name()
				}
				matches = fuzzy.Find(args[0], names)
			} else {
				matches = fuzzy.FindFrom(args[0], pkgs)
			}
			stop()

			w := out(cmd)
			if len(matches) == 0 {
				fmt.Fprintf(w, "%s No results found for %q\n", dim("○"), args[0])
				return nil
			}

			size := min(len(matches), show)

			fmt.Fprintf(w, "\nShowing %s of %s results for %q\n\n", green(size), green(len(matches)), args[0])

			for _, m := range matches[:size] {
				p := pkgs[m.Index]
				fmt.Fprintf(w, "%s %s\n", green("●"), bold(p.Name()))
				if v, ok := p.Candidate(); ok {
					fmt.Fprintf(w, "  %s %s\n", cyan("version:"), v.Version())
					if v.Summary() != "" {
						fmt.Fprintf(w, "  %s %s\n", cyan("desc:"), v.Summary())
					}
				}
				if p.IsInstalled() {
					fmt.Fprintf(w, "  %s\n", dim("[installed]"))
				}
				fmt.Fprintln(w)
			}

			if len(matches) > size {
				fmt.Fprintf(w, "%s %d more available, use %s to see all\n", dim("..."), len(matches)-size, cyan(fmt.Sprintf("--show %d", len(matches))))
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&show, "show", "s", 50, "Shows first n packages")
	cmd.Flags().BoolVarP(&namesOnly, "names-only", "n", false, "Match package names only")
	return cmd
}
