// Package commands implements the CLI commands for berth.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/berth/internal/app"
	"go.trai.ch/berth/internal/build"
)

// CLI represents the command line interface for berth.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Resolve(ctx context.Context, o app.Overrides, opts app.ResolveOptions) error
	Assemble(ctx context.Context, o app.Overrides) error
	Launch(ctx context.Context, o app.Overrides) error
	Build(ctx context.Context, o app.Overrides, launch bool) error
	Clean(ctx context.Context, o app.Overrides, opts app.CleanOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "berth",
		Short:         "Resolve, assemble and serve Python web applications",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to the config file (default berth.yaml)")
	flags.String("host", "", "Address the server binds")
	flags.Int("port", 0, "Port the server listens on")
	flags.StringP("manifest", "m", "", "Path to the dependency manifest")
	flags.StringP("lock", "l", "", "Path to the lock file")
	flags.StringP("output", "o", "auto", "Output mode: auto, tui, color, plain or json")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newAssembleCmd())
	rootCmd.AddCommand(c.newLaunchCmd())
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// overrides collects the persistent flags shared by every command.
func overrides(cmd *cobra.Command) app.Overrides {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	host, _ := flags.GetString("host")
	port, _ := flags.GetInt("port")
	manifest, _ := flags.GetString("manifest")
	lock, _ := flags.GetString("lock")
	output, _ := flags.GetString("output")

	return app.Overrides{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Manifest:   manifest,
		Lock:       lock,
		Output:     output,
	}
}
