package cli

import (
	"github.com/spf13/cobra"

	"github.com/tacogips/stackforge/internal/app"
	"github.com/tacogips/stackforge/internal/config"
	"github.com/tacogips/stackforge/internal/debug"
	"github.com/tacogips/stackforge/internal/stack"
)

var (
	installFlags  commandFlags
	setupFlags    commandFlags
	configDBFlags commandFlags
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Generate the project and initialize the database",
	Long: `Check dependencies, generate the project files and bootstrap the database.

Answers given with --set or dedicated flags are not prompted for.

Examples:
  stackforge install
  stackforge install --domain example.com --http-port 8080 --yes
  stackforge install --set db_name=shop --keep-running`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := installFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		a := newApp(opts)
		outcome, err := a.Install(cmd.Context(), opts)
		if err != nil {
			return err
		}
		reportOutcome(opts, outcome)
		printSuccess("Install complete")
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate and patch the project files",
	Long: `Copy the setup templates into the project directory and apply the answers.

Existing files are kept; ports, server name and database settings are patched
into them.

Examples:
  stackforge setup
  stackforge setup --dest ./deploy --http-port 8080 -y
  stackforge setup --dry-run -y`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := setupFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		if err := newApp(opts).Setup(cmd.Context(), opts); err != nil {
			return err
		}
		if opts.DryRun {
			printInfo("Dry run: nothing was written")
			return nil
		}
		printSuccess("Setup complete")
		return nil
	},
}

var configDBCmd = &cobra.Command{
	Use:   "configdb",
	Short: "Initialize the database",
	Long: `Deploy the one-shot database stack, wait until MySQL has run its init
scripts and remove the stack again.

Requires the password file written by setup.

Examples:
  stackforge configdb
  stackforge configdb --stack mystack --keep-running`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := configDBFlags.loadOptions(cmd)
		if err != nil {
			return err
		}
		outcome, err := newApp(opts).ConfigDB(cmd.Context(), opts)
		if err != nil {
			return err
		}
		reportOutcome(opts, outcome)
		return nil
	},
}

func init() {
	installFlags.addOptionFlags(installCmd)
	installFlags.addStackFlags(installCmd)
	installFlags.addAnswerFlags(installCmd)

	setupFlags.addOptionFlags(setupCmd)
	setupFlags.addAnswerFlags(setupCmd)
	setupFlags.addDryRunFlag(setupCmd)

	configDBFlags.addOptionFlags(configDBCmd)
	configDBFlags.addStackFlags(configDBCmd)
}

// newApp wires the app to the terminal.
func newApp(opts *config.Options) *app.App {
	var prompter app.Prompter
	if !opts.Yes && isTerminal(stdout) {
		prompter = surveyPrompter{}
	}
	a := app.New(progressWriter(), prompter)
	// Debug lines would tear through the spinner.
	a.Spinner = !opts.Quiet && !debug.IsEnabled() && isTerminal(stdout)
	a.OnStep = printProgress
	return a
}

func reportOutcome(opts *config.Options, outcome stack.Outcome) {
	switch outcome {
	case stack.AssumedInitialized:
		printWarning("Database reported ready without running init scripts; assuming it was already initialized")
	default:
		printSuccess("Database initialized")
	}
	if opts.KeepRunning {
		printInfo("Stack " + opts.StackName + " left running")
	}
}
