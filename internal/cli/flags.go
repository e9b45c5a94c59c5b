package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tacogips/stackforge/internal/config"
	"github.com/tacogips/stackforge/internal/debug"
	"github.com/tacogips/stackforge/internal/render"
)

// Common flag names and descriptions
const (
	// Flag names
	FlagConfig      = "config"
	FlagNoColor     = "no-color"
	FlagQuiet       = "quiet"
	FlagDebug       = "debug"
	FlagYes         = "yes"
	FlagSet         = "set"
	FlagStack       = "stack"
	FlagDest        = "dest"
	FlagTemplates   = "templates"
	FlagDocker      = "docker"
	FlagKeepRunning = "keep-running"
	FlagDomain      = "domain"
	FlagHTTPPort    = "http-port"
	FlagDryRun      = "dry-run"

	// Flag descriptions
	DescConfig      = "Path to config file (default .stackforge.yaml if present)"
	DescNoColor     = "Disable colored output"
	DescQuiet       = "Suppress non-error output"
	DescDebug       = "Enable debug logging"
	DescYes         = "Accept defaults for every unanswered prompt"
	DescSet         = "Preset an answer (key=value, repeatable)"
	DescStack       = "Stack name"
	DescDest        = "Project directory"
	DescTemplates   = "Templates directory"
	DescDocker      = "Docker executable"
	DescKeepRunning = "Leave the bootstrap stack running"
	DescDomain      = "Domain name"
	DescHTTPPort    = "HTTP port"
	DescDryRun      = "List the files that would be created without writing them"
)

// commandFlags are the per-command flags that map onto Options.
type commandFlags struct {
	yes         bool
	sets        []string
	stack       string
	dest        string
	templates   string
	docker      string
	keepRunning bool
	domain      string
	httpPort    int
	dryRun      bool
}

// addOptionFlags registers the Options overrides on cmd.
func (f *commandFlags) addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.yes, FlagYes, "y", false, DescYes)
	cmd.Flags().StringArrayVar(&f.sets, FlagSet, nil, DescSet)
	cmd.Flags().StringVar(&f.stack, FlagStack, "", DescStack)
	cmd.Flags().StringVar(&f.dest, FlagDest, "", DescDest)
	cmd.Flags().StringVar(&f.templates, FlagTemplates, "", DescTemplates)
	cmd.Flags().StringVar(&f.docker, FlagDocker, "", DescDocker)
}

// addStackFlags registers flags used by commands that deploy stacks.
func (f *commandFlags) addStackFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.keepRunning, FlagKeepRunning, false, DescKeepRunning)
}

// addAnswerFlags registers dedicated flags for common answers.
func (f *commandFlags) addAnswerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.domain, FlagDomain, "", DescDomain)
	cmd.Flags().IntVar(&f.httpPort, FlagHTTPPort, 0, DescHTTPPort)
}

// addDryRunFlag registers --dry-run.
func (f *commandFlags) addDryRunFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, FlagDryRun, false, DescDryRun)
}

// overrides converts the flags that were set on cmd into koanf keys.
func (f *commandFlags) overrides(cmd *cobra.Command) (map[string]any, error) {
	o := map[string]any{}
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed(FlagStack) {
		o["stack_name"] = f.stack
	}
	if changed(FlagDest) {
		o["dest_dir"] = f.dest
	}
	if changed(FlagTemplates) {
		o["templates_dir"] = f.templates
	}
	if changed(FlagDocker) {
		o["docker_bin"] = f.docker
	}
	if changed(FlagKeepRunning) {
		o["keep_running"] = f.keepRunning
	}
	if changed(FlagYes) {
		o["yes"] = f.yes
	}
	if changed(FlagDryRun) {
		o["dry_run"] = f.dryRun
	}

	answers, err := render.ParseAssignments(f.sets)
	if err != nil {
		return nil, err
	}
	for k, v := range answers {
		if strings.Contains(k, ".") {
			return nil, fmt.Errorf("invalid answer key %q: keys cannot contain '.'", k)
		}
		o["answers."+k] = v
	}
	if changed(FlagDomain) {
		o["answers.domain"] = f.domain
	}
	if changed(FlagHTTPPort) {
		o["answers.http_port"] = strconv.Itoa(f.httpPort)
	}
	return o, nil
}

// loadOptions builds the Options for one invocation.
func (f *commandFlags) loadOptions(cmd *cobra.Command) (*config.Options, error) {
	overrides, err := f.overrides(cmd)
	if err != nil {
		return nil, err
	}
	if globalQuiet {
		overrides["quiet"] = true
	}
	if globalNoColor {
		overrides["no_color"] = true
	}
	if globalDebug {
		overrides["debug"] = true
	}

	opts, err := config.Load(globalConfig, overrides)
	if err != nil {
		return nil, err
	}
	// Config files may turn these on too.
	globalQuiet = opts.Quiet
	globalNoColor = opts.NoColor
	globalDebug = opts.Debug
	debug.SetDebug(opts.Debug)

	debug.DebugSection("options")
	debug.DebugValue("config file", opts.ConfigFile)
	debug.DebugJSON("resolved", opts)
	return opts, nil
}
