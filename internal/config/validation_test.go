package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o *Options)
		wantField string
	}{
		{name: "defaults", mutate: func(o *Options) {}},
		{name: "stack name with dots", mutate: func(o *Options) { o.StackName = "ab.dev-1" }},
		{name: "empty stack name", mutate: func(o *Options) { o.StackName = "" }, wantField: "stack_name"},
		{name: "stack name with space", mutate: func(o *Options) { o.StackName = "my stack" }, wantField: "stack_name"},
		{name: "stack name leading dash", mutate: func(o *Options) { o.StackName = "-ab" }, wantField: "stack_name"},
		{name: "no templates dir", mutate: func(o *Options) { o.TemplatesDir = "" }, wantField: "templates_dir"},
		{name: "no dest dir", mutate: func(o *Options) { o.DestDir = "" }, wantField: "dest_dir"},
		{name: "no docker", mutate: func(o *Options) { o.DockerBin = "" }, wantField: "docker_bin"},
		{name: "zero interval", mutate: func(o *Options) { o.HealthInterval = 0 }, wantField: "health_interval"},
		{name: "zero grace", mutate: func(o *Options) { o.GraceChecks = 0 }, wantField: "grace_checks"},
		{name: "negative backoff", mutate: func(o *Options) { o.DeployBackoff = -1 }, wantField: "deploy_backoff"},
		{name: "no marker", mutate: func(o *Options) { o.NetworkRaceMarker = "" }, wantField: "network_race_marker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(opts)
			err := Validate(opts)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Type != ConfigValidationFailed {
				t.Errorf("Type = %v, want ConfigValidationFailed", cfgErr.Type)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected error for nil options")
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Type: ConfigInvalid, File: "a.yaml", Field: "grace_checks", Message: "bad", Cause: errors.New("boom")}
	want := "configuration error in a.yaml [grace_checks]: bad: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, err.Cause) {
		t.Error("expected Unwrap to expose cause")
	}
}
