package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tacogips/stackforge/internal/debug"
)

// Version information, set by main from ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global flags
var (
	globalConfig  string
	globalNoColor bool
	globalQuiet   bool
	globalDebug   bool
)

// Output streams; replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackforge",
	Short: "Install and configure a multi-service Docker stack",
	Long: `stackforge generates the project files of a Docker Swarm stack from
templates, patches them with your answers and bootstraps the database.

Use "stackforge install" to:
  1. Check that docker is available
  2. Ask for the domain, ports and database settings
  3. Generate docker-compose.yml, nginx and application config
  4. Run the one-shot database initialization stack

Files that already exist are never overwritten; answers are re-applied by
patching them in place.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetDebug(globalDebug)
		debug.SetNoColor(!colorEnabled())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfig, FlagConfig, "", DescConfig)
	rootCmd.PersistentFlags().BoolVar(&globalNoColor, FlagNoColor, false, DescNoColor)
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, FlagQuiet, "q", false, DescQuiet)
	rootCmd.PersistentFlags().BoolVar(&globalDebug, FlagDebug, false, DescDebug)

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configDBCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorEnabled reports whether ANSI colors should be written to stdout.
func colorEnabled() bool {
	return !globalNoColor && isTerminal(stdout)
}

// printError prints an error message to stderr
func printError(err error) {
	fmt.Fprintf(stderr, "Error: %v\n", err)
}
