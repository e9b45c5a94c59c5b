package config

import "time"

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given.
const DefaultConfigFile = ".stackforge.yaml"

// EnvPrefix prefixes environment overrides, e.g. STACKFORGE_STACK_NAME.
const EnvPrefix = "STACKFORGE_"

// DefaultOptions returns the built-in defaults.
func DefaultOptions() *Options {
	return &Options{
		StackName:         "stackforge",
		TemplatesDir:      "templates",
		DestDir:           ".",
		DockerBin:         "docker",
		HealthInterval:    15 * time.Second,
		GraceChecks:       3,
		DeployBackoff:     time.Second,
		NetworkRaceMarker: "network with name",
		IgnorePatterns:    DefaultIgnorePatterns(),
		Answers:           map[string]any{},
	}
}

// DefaultIgnorePatterns returns the default ignore patterns.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.swp",
		"*.swo",
		"*~",
	}
}

func defaultValues() map[string]any {
	d := DefaultOptions()
	return map[string]any{
		"stack_name":          d.StackName,
		"templates_dir":       d.TemplatesDir,
		"dest_dir":            d.DestDir,
		"docker_bin":          d.DockerBin,
		"keep_running":        d.KeepRunning,
		"health_interval":     d.HealthInterval,
		"grace_checks":        d.GraceChecks,
		"deploy_backoff":      d.DeployBackoff,
		"network_race_marker": d.NetworkRaceMarker,
		"ignore_patterns":     d.IgnorePatterns,
		"quiet":               false,
		"no_color":            false,
		"debug":               false,
		"yes":                 false,
		"dry_run":             false,
	}
}
