package cli

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
)

type listFlags struct {
	installed     bool
	upgradable    bool
	auto          bool
	manual        bool
	autoRemovable bool
	virtual       bool
	allVersions   bool
}

func (f listFlags) sort() cache.PackageSort {
	s := cache.PackageSort{}
	if f.installed {
		s = s.Installed()
	}
	if f.upgradable {
		s = s.Upgradable()
	}
	if f.auto {
		s = s.AutoInstalled()
	}
	if f.manual {
		s = s.ManuallyInstalled()
	}
	if f.autoRemovable {
		s = s.AutoRemovable()
	}
	if f.virtual {
		s = s.OnlyVirtual()
	}
	return s
}

func newListCmd(g *globalFlags) *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "list [pattern]",
		Short: "List packages, optionally filtered by a glob pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.auto && f.manual {
				return fmt.Errorf("--auto and --manual are mutually exclusive")
			}

			c, _, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			if _, err := path.Match(pattern, ""); err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}

			w := out(cmd)
			count := 0
			for p := range c.Packages(f.sort()) {
				if ok, _ := path.Match(pattern, p.Name()); !ok {
					continue
				}
				count++

				if p.IsVirtual() {
					fmt.Fprintf(w, "%s %s\n", bold(p.FullName(true)), dim("(virtual)"))
					continue
				}
				if f.allVersions {
					for v := range p.Versions() {
						fmt.Fprintln(w, listLine(p, v))
					}
					continue
				}
				v, ok := p.Candidate()
				if !ok {
					v, ok = p.Installed()
				}
				if ok {
					fmt.Fprintln(w, listLine(p, v))
				}
			}

			if count == 0 {
				fmt.Fprintf(w, "%s No packages match %q\n", dim("○"), pattern)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.installed, "installed", false, "Only installed packages")
	cmd.Flags().BoolVar(&f.upgradable, "upgradable", false, "Only packages with a newer candidate")
	cmd.Flags().BoolVar(&f.auto, "auto", false, "Only automatically installed packages")
	cmd.Flags().BoolVar(&f.manual, "manual", false, "Only manually installed packages")
	cmd.Flags().BoolVar(&f.autoRemovable, "autoremovable", false, "Only packages nothing depends on anymore")
	cmd.Flags().BoolVar(&f.virtual, "virtual", false, "Only virtual packages")
	cmd.Flags().BoolVarP(&f.allVersions, "all-versions", "a", false, "Show every known version")
	return cmd
}

// listLine renders "name/archive version arch [flags]".
func listLine(p cache.Package, v cache.Version) string {
	line := fmt.Sprintf("%s/%s %s %s", green(p.Name()), archiveOf(v), v.Version(), v.Arch())

	var flags []string
	if v.IsInstalled() {
		switch {
		case p.IsUpgradable(false):
			cand, _ := p.Candidate()
			flags = append(flags, "installed,upgradable to: "+cand.Version())
		case p.IsAutoInstalled():
			flags = append(flags, "installed,automatic")
		default:
			flags = append(flags, "installed")
		}
	} else if inst, ok := p.Installed(); ok && v.IsCandidate() {
		flags = append(flags, "upgradable from: "+inst.Version())
	}
	if p.IsAutoRemovable() && v.IsInstalled() {
		flags = append(flags, "autoremovable")
	}

	if len(flags) > 0 {
		line += " " + dim("["+strings.Join(flags, ",")+"]")
	}
	return line
}
