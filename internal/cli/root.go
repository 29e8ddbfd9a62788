package cli

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/teamcutter/aptcache/internal/cache"
	"github.com/teamcutter/aptcache/internal/config"
	"github.com/teamcutter/aptcache/internal/logging"
)

type globalFlags struct {
	configPath string
	arch       string
	verbose    bool
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "aptcache",
		Short:         "Query and refresh Debian package metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&g.arch, "arch", "", "Override the native architecture")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newUpdateCmd(g),
		newListCmd(g),
		newShowCmd(g),
		newSearchCmd(g),
		newPolicyCmd(g),
		newDependsCmd(g),
		newRdependsCmd(g),
		newProvidesCmd(g),
		newSourcesCmd(g),
		newSpaceCmd(g),
		newCheckCmd(g),
		newCleanCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func (g *globalFlags) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.arch != "" {
		cfg.Architecture = g.arch
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func (g *globalFlags) open(cmd *cobra.Command, opts cache.Options) (*cache.Cache, *config.Config, error) {
	cfg, log, err := g.load()
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = log

	stop := withSpinner(cmd.Context(), cmd.ErrOrStderr(), "Reading package lists...")
	c, err := cache.Open(cfg, opts)
	stop()
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
