package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/homebox"
	"homebox-voice-mcp/internal/inventory"
	"homebox-voice-mcp/internal/resolver"

	"github.com/spf13/cobra"
)

func (o *globalOptions) client() (*homebox.Client, error) {
	cfg, _, err := o.load()
	if err != nil {
		return nil, err
	}
	logger, err := o.cliLogger(cfg)
	if err != nil {
		return nil, err
	}
	return homebox.NewClient(cfg.Homebox, homebox.WithLogger(logger)), nil
}

func newResolveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a spoken location path against the live tree and print its id",
		Example: `  homebox-voice resolve "home / garage / shelf"
  homebox-voice resolve Shelf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			path := resolver.Normalize(args[0])
			if len(path) == 0 {
				return fmt.Errorf("empty path %q", args[0])
			}
			tree, err := c.GetLocationTree(cmd.Context(), nil, false)
			if err != nil {
				return err
			}
			id, ok := resolver.Resolve(path, tree, nil)
			if !ok {
				return fmt.Errorf("could not find location %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newTreeCmd(opts *globalOptions) *cobra.Command {
	var withItems bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the location tree as the agent sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			tree, err := c.GetLocationTree(cmd.Context(), nil, withItems)
			if err != nil {
				return err
			}
			out, err := inventory.MinimalJSON(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withItems, "items", false, "Include items as leaves")
	return cmd
}

func newLocationsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List every location with its id and item count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			return listLocations(cmd.Context(), c, cmd.OutOrStdout())
		},
	}
}

func listLocations(ctx context.Context, c *homebox.Client, out io.Writer) error {
	locs, err := c.ListLocations(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tITEMS")
	for _, l := range locs {
		fmt.Fprintf(w, "%s\t%s\t%d\n", l.ID, l.Name, l.ItemCount)
	}
	return w.Flush()
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a .homebox-voice workspace with a template config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			if strings.TrimSpace(root) == "" {
				return fmt.Errorf("empty directory")
			}
			if _, err := os.Stat(root); err != nil {
				return fmt.Errorf("workspace root: %w", err)
			}
			if err := config.InitWorkspace(root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized workspace in %s\n", root)
			return nil
		},
	}
}
