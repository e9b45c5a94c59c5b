package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tacogips/stackforge/internal/debug"
)

var log = debug.For("config")

// Load builds Options from, in increasing precedence: defaults, the YAML file
// at path, STACKFORGE_* environment variables and overrides. An empty path
// reads DefaultConfigFile when it exists; an explicit path must exist.
//
// Override keys use the koanf tags of Options. Nested answers are addressed
// as "answers.<key>".
func Load(path string, overrides map[string]any) (*Options, error) {
	k := koanf.New(".")

	for key, v := range defaultValues() {
		if err := k.Set(key, v); err != nil {
			return nil, &ConfigError{Type: ConfigInvalid, Field: key, Message: "invalid default", Cause: err}
		}
	}

	configFile, err := resolveFile(path)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		log.Debugf("loading %s", configFile)
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, &ConfigError{Type: ConfigInvalid, File: configFile, Message: "failed to parse configuration file", Cause: err}
		}
	}

	// STACKFORGE_HEALTH_INTERVAL -> health_interval, STACKFORGE_ANSWERS__PORT -> answers.port
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, &ConfigError{Type: ConfigInvalid, Message: "failed to read environment", Cause: err}
	}

	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return nil, &ConfigError{Type: ConfigInvalid, Field: key, Message: "invalid override", Cause: err}
		}
	}

	opts := &Options{}
	if err := k.Unmarshal("", opts); err != nil {
		return nil, &ConfigError{Type: ConfigInvalid, File: configFile, Message: "failed to decode options", Cause: err}
	}
	if opts.Answers == nil {
		opts.Answers = map[string]any{}
	}
	opts.ConfigFile = configFile

	if err := Validate(opts); err != nil {
		if cfgErr, ok := err.(*ConfigError); ok {
			cfgErr.File = configFile
		}
		return nil, err
	}
	return opts, nil
}

func resolveFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", &ConfigError{Type: ConfigNotFound, File: path, Message: "configuration file not found", Cause: err}
			}
			return "", &ConfigError{Type: ConfigInvalid, File: path, Message: "failed to read configuration file", Cause: err}
		}
		return path, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}
