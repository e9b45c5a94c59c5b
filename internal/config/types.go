// Package config builds the per-invocation Options passed through every
// workflow step.
package config

import "time"

// Options holds everything a command needs. One value is built per
// invocation and passed explicitly to each step.
type Options struct {
	// StackName is the swarm stack name used for bootstrap deploys.
	StackName string `koanf:"stack_name"`
	// TemplatesDir holds one directory per template.
	TemplatesDir string `koanf:"templates_dir"`
	// DestDir is the project root files are generated into.
	DestDir string `koanf:"dest_dir"`
	// DockerBin is the docker executable.
	DockerBin string `koanf:"docker_bin"`
	// KeepRunning leaves bootstrap stacks deployed.
	KeepRunning bool `koanf:"keep_running"`

	// HealthInterval is the readiness check period of the watcher.
	HealthInterval time.Duration `koanf:"health_interval"`
	// GraceChecks is the number of checks after readiness before the watcher
	// assumes the service was already initialized.
	GraceChecks int `koanf:"grace_checks"`
	// DeployBackoff is the delay between deploy retries.
	DeployBackoff time.Duration `koanf:"deploy_backoff"`
	// NetworkRaceMarker identifies retryable deploy failures in stderr.
	NetworkRaceMarker string `koanf:"network_race_marker"`

	// IgnorePatterns are glob patterns skipped while copying templates.
	IgnorePatterns []string `koanf:"ignore_patterns"`
	// BinaryExtensions are copied without rendering.
	BinaryExtensions []string `koanf:"binary_extensions"`
	// Verbatim lists path substrings that are copied without rendering.
	Verbatim []string `koanf:"verbatim"`

	// Answers pre-fill prompt answers and the render context.
	Answers map[string]any `koanf:"answers"`

	// Quiet suppresses non-error output.
	Quiet bool `koanf:"quiet"`
	// NoColor disables ANSI colors.
	NoColor bool `koanf:"no_color"`
	// Debug enables debug logging.
	Debug bool `koanf:"debug"`
	// Yes accepts prompt defaults without asking.
	Yes bool `koanf:"yes"`
	// DryRun lists the files setup would create without writing them.
	DryRun bool `koanf:"dry_run"`

	// ConfigFile is the file the options were read from, if any.
	ConfigFile string `koanf:"-"`
}

// Answer returns a pre-supplied answer.
func (o *Options) Answer(key string) (any, bool) {
	if o.Answers == nil {
		return nil, false
	}
	v, ok := o.Answers[key]
	return v, ok
}

// SetAnswer records an answer.
func (o *Options) SetAnswer(key string, value any) {
	if o.Answers == nil {
		o.Answers = make(map[string]any)
	}
	o.Answers[key] = value
}
