package config

import (
	"fmt"
	"regexp"
)

var stackNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Validate checks option ranges.
func Validate(opts *Options) error {
	if opts == nil {
		return fieldError("", "options cannot be nil")
	}
	if !stackNamePattern.MatchString(opts.StackName) {
		return fieldError("stack_name", fmt.Sprintf("invalid stack name %q: must start with a letter or digit and contain only letters, digits, '_', '.' and '-'", opts.StackName))
	}
	if opts.TemplatesDir == "" {
		return fieldError("templates_dir", "templates directory is required")
	}
	if opts.DestDir == "" {
		return fieldError("dest_dir", "destination directory is required")
	}
	if opts.DockerBin == "" {
		return fieldError("docker_bin", "docker binary is required")
	}
	if opts.HealthInterval <= 0 {
		return fieldError("health_interval", "health interval must be positive")
	}
	if opts.GraceChecks < 1 {
		return fieldError("grace_checks", "grace checks must be at least 1")
	}
	if opts.DeployBackoff <= 0 {
		return fieldError("deploy_backoff", "deploy backoff must be positive")
	}
	if opts.NetworkRaceMarker == "" {
		return fieldError("network_race_marker", "network race marker is required")
	}
	return nil
}
