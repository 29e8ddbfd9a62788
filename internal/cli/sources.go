package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
	"github.com/teamcutter/aptcache/internal/lists"
)

func newSourcesCmd(g *globalFlags) *cobra.Command {
	var missing bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the index files the configured sources expand to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := g.open(cmd, cache.Options{})
			if err != nil {
				return err
			}

			dir := lists.Open(cfg.ListsDir)
			w := out(cmd)
			for t := range c.Sources() {
				present := dir.Has(t.Filename)
				if missing && present {
					continue
				}
				mark := green("✓")
				if !present {
					mark = red("✗")
				}
				fmt.Fprintf(w, "%s %s\n  %s %s\n", mark, bold(t.Description), dim("uri:"), t.URI)
				fmt.Fprintf(w, "  %s %s\n", dim("file:"), dir.Path(t.Filename))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&missing, "missing", false, "Only index files not downloaded yet")
	return cmd
}
