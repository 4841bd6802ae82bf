package main

import (
	"fmt"
	"os"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath   string
	workspaceDir string
	noWorkspace  bool
	verbose      bool
}

func (o *globalOptions) load() (config.Config, string, error) {
	cfg, wsDir, err := config.LoadWithWorkspace(o.configPath, config.WorkspaceOptions{
		Disable:     o.noWorkspace,
		ExplicitDir: o.workspaceDir,
	})
	if err != nil {
		return cfg, wsDir, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, wsDir, nil
}

// cliLogger is used by the one-shot commands. It stays quiet unless --verbose.
func (o *globalOptions) cliLogger(cfg config.Config) (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	return logging.New(cfg.Server, logging.Options{Verbose: true})
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "homebox-voice",
		Short: "MCP tools for managing a Homebox inventory by voice",
		Long: `homebox-voice exposes a small set of inventory tools over the Model Context
Protocol. A voice agent calls them to move around the location tree, create
locations and items, and adjust quantities; every change is kept in an
in-memory session log.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file layered over the workspace config")
	root.PersistentFlags().StringVar(&opts.workspaceDir, "workspace-dir", "", "Use this directory as workspace root instead of searching upwards")
	root.PersistentFlags().BoolVar(&opts.noWorkspace, "no-workspace", false, "Skip .homebox-voice workspace discovery")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newResolveCmd(opts),
		newTreeCmd(opts),
		newLocationsCmd(opts),
		newInitCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
