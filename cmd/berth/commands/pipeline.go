package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/berth/internal/app"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the manifest into a lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			export, _ := cmd.Flags().GetString("export")
			return c.app.Resolve(cmd.Context(), overrides(cmd), app.ResolveOptions{
				Watch:  watch,
				Export: export,
			})
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "Re-resolve whenever the manifest or config changes")
	cmd.Flags().String("export", "", "Also write the lock as a pinned requirements file")
	return cmd
}

func (c *CLI) newAssembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a runtime image from the lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Assemble(cmd.Context(), assembleOverrides(cmd))
		},
	}
	addAssembleFlags(cmd)
	return cmd
}

func (c *CLI) newLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Serve the current runtime image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Launch(cmd.Context(), overrides(cmd))
		},
	}
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve and assemble in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			launch, _ := cmd.Flags().GetBool("launch")
			return c.app.Build(cmd.Context(), assembleOverrides(cmd), launch)
		},
	}
	addAssembleFlags(cmd)
	cmd.Flags().Bool("launch", false, "Serve the image once it is assembled")
	return cmd
}

func addAssembleFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("native", "n", nil, "Native system package to install (repeatable)")
	cmd.Flags().String("payload", "", "Directory holding the application payload")
}

func assembleOverrides(cmd *cobra.Command) app.Overrides {
	o := overrides(cmd)
	if native, _ := cmd.Flags().GetStringSlice("native"); len(native) > 0 {
		o.NativeDeps = native
	}
	o.PayloadDir, _ = cmd.Flags().GetString("payload")
	return o
}
