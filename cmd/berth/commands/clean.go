package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/berth/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove runtime images and cached state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, _ := cmd.Flags().GetBool("cache")
			all, _ := cmd.Flags().GetBool("all")
			return c.app.Clean(cmd.Context(), overrides(cmd), app.CleanOptions{
				Cache: cache,
				All:   all,
			})
		},
	}

	cmd.Flags().Bool("cache", false, "Also clean the package index cache")
	cmd.Flags().BoolP("all", "a", false, "Remove the whole state directory")

	return cmd
}
