package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
	"github.com/teamcutter/aptcache/internal/units"
)

var showRelations = []string{
	cache.PreDepends, cache.Depends, cache.Recommends, cache.Suggests, cache.Enhances,
	cache.Conflicts, cache.Breaks, cache.Replaces, cache.Obsoletes,
}

func newShowCmd(g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show <package>...",
		Short: "Show package records",
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

				if !p.HasVersions() {
					fmt.Fprintf(w, "%s %s is a virtual package provided by:\n", yellow("●"), bold(p.FullName(true)))
					for _, prov := range c.ProvidersOf(p, false) {
						fmt.Fprintf(w, "  %s\n", prov.FullName(true))
					}
					fmt.Fprintln(w)
					continue
				}

				for v := range p.Versions() {
					if !all && !v.IsCandidate() {
						continue
					}
					writeRecord(w, p, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all-versions", "a", false, "Show every version instead of the candidate")
	return cmd
}

func writeRecord(w io.Writer, p cache.Package, v cache.Version) {
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s %s\n", cyan(name+":"), value)
		}
	}

	field("Package", p.Name())
	field("Version", v.Version())
	field("Priority", v.PriorityType())
	field("Section", v.Section())
	if src := v.SourcePackage(); src != "" && src != p.Name() {
		field("Source", src)
	}
	field("Architecture", v.Arch())
	field("Multi-Arch", v.MultiArch())
	if v.InstalledSize() > 0 {
		field("Installed-Size", units.Str(v.InstalledSize(), units.Binary))
	}
	if provides := v.Provides(); len(provides) > 0 {
		field("Provides", strings.Join(provides, ", "))
	}
	deps := v.DependsMap()
	for _, kind := range showRelations {
		field(relationField(kind), cache.FormatDepends(deps[kind]))
	}
	if v.Size() > 0 {
		field("Download-Size", units.Str(v.Size(), units.Decimal))
	}
	if v.IsInstalled() {
		field("APT-Manual-Installed", yesNo(!p.IsAutoInstalled()))
	}
	for _, f := range v.PackageFiles() {
		if f.IndexType == "" || f.Site == "" {
			continue
		}
		field("APT-Sources", fmt.Sprintf("%s %s/%s %s", f.Site, f.Archive, f.Component, f.Arch))
	}
	field("Description", v.Summary())
	if full := v.Description(); full != "" {
		_, long, _ := strings.Cut(full, "\n")
		for _, line := range strings.Split(long, "\n") {
			if line == "" {
				line = "."
			}
			fmt.Fprintf(w, " %s\n", strings.TrimLeft(line, " "))
		}
	}
	fmt.Fprintln(w)
}

// relationField turns a relation key back into its control file spelling.
func relationField(kind string) string {
	if kind == cache.PreDepends {
		return "Pre-Depends"
	}
	return kind
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
