// Copyright 2026 The Capisuite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cfg holds the capisuited configuration schema and the viper/pflag
// wiring that binds command-line flags to it.
package cfg

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/larsimmisch/capisuite/internal/cfgerr"
)

// ControllerConfig selects one ISDN controller and the services it should
// listen for.
type ControllerConfig struct {
	ID       int      `mapstructure:"id" yaml:"id"`
	Services []string `mapstructure:"services" yaml:"services"`
}

// Config is the full capisuited configuration, bound from CLI flags, a YAML
// file, or both (flags win on conflict, following viper's normal precedence).
type Config struct {
	IncomingScriptPath        string `mapstructure:"incoming-script-path" yaml:"incoming-script-path"`
	IdleScriptPath            string `mapstructure:"idle-script-path" yaml:"idle-script-path"`
	IdleScriptIntervalSeconds int    `mapstructure:"idle-script-interval-seconds" yaml:"idle-script-interval-seconds"`

	LogFile      string `mapstructure:"log-file" yaml:"log-file"`
	LogLevel     int    `mapstructure:"log-level" yaml:"log-level"`
	ErrorLogFile string `mapstructure:"error-log-file" yaml:"error-log-file"`

	DDILength      int      `mapstructure:"ddi-length" yaml:"ddi-length"`
	DDIBaseLength  int      `mapstructure:"ddi-base-length" yaml:"ddi-base-length"`
	DDIStopNumbers []string `mapstructure:"ddi-stop-numbers" yaml:"ddi-stop-numbers"`

	Controllers []ControllerConfig `mapstructure:"controllers" yaml:"controllers"`

	Foreground bool `mapstructure:"foreground" yaml:"foreground"`
}

// BindFlags registers the capisuited flag set and binds each flag into
// viper under the matching configuration key.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("incoming-script-path", "", "", "Path to the per-call incoming script.")
	if err = viper.BindPFlag("incoming-script-path", flagSet.Lookup("incoming-script-path")); err != nil {
		return err
	}

	flagSet.StringP("idle-script-path", "", "", "Path to the idle-timer script.")
	if err = viper.BindPFlag("idle-script-path", flagSet.Lookup("idle-script-path")); err != nil {
		return err
	}

	flagSet.IntP("idle-script-interval-seconds", "", 60, "Seconds between idle-script invocations.")
	if err = viper.BindPFlag("idle-script-interval-seconds", flagSet.Lookup("idle-script-interval-seconds")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Debug log sink. Empty means stderr.")
	if err = viper.BindPFlag("log-file", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.IntP("log-level", "", 1, "Log level, 0 (errors only) through 3 (trace).")
	if err = viper.BindPFlag("log-level", flagSet.Lookup("log-level")); err != nil {
		return err
	}

	flagSet.StringP("error-log-file", "", "", "Error log sink. Empty means stderr.")
	if err = viper.BindPFlag("error-log-file", flagSet.Lookup("error-log-file")); err != nil {
		return err
	}

	flagSet.IntP("ddi-length", "", 0, "Number of DDI digits accumulated from INFO_IND; 0 disables DDI mode.")
	if err = viper.BindPFlag("ddi-length", flagSet.Lookup("ddi-length")); err != nil {
		return err
	}

	flagSet.IntP("ddi-base-length", "", 0, "Length of the fixed base prefix prepended to accumulated DDI digits.")
	if err = viper.BindPFlag("ddi-base-length", flagSet.Lookup("ddi-base-length")); err != nil {
		return err
	}

	flagSet.StringP("ddi-stop-numbers", "", "", "Comma-separated DDI suffixes that terminate accumulation early.")
	if err = viper.BindPFlag("ddi-stop-numbers", flagSet.Lookup("ddi-stop-numbers")); err != nil {
		return err
	}

	flagSet.BoolP("foreground", "f", false, "Run in the foreground instead of forking a daemon.")
	if err = viper.BindPFlag("foreground", flagSet.Lookup("foreground")); err != nil {
		return err
	}

	return nil
}

// StringToStringSliceHookFunc returns a mapstructure decode hook splitting
// comma-separated strings into string slices, used for ddi-stop-numbers
// when the config arrives from a flat string-to-string source (e.g. an
// old-style key=value config file) rather than YAML.
func StringToStringSliceHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if from != reflect.String || to != reflect.Slice {
			return data, nil
		}
		return ParseDDIStopNumbers(data.(string)), nil
	}
}

// ParseDDIStopNumbers splits the comma-separated ddi-stop-numbers value,
// trimming whitespace and dropping empty entries.
func ParseDDIStopNumbers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate enforces spec §6/§7: numeric configuration keys must be decimal
// non-negative; an invalid value is a fatal configuration error.
func (c *Config) Validate() error {
	if c.LogLevel < 0 || c.LogLevel > 3 {
		return cfgerr.New("log-level", fmt.Errorf("must be between 0 and 3, got %d", c.LogLevel))
	}
	if _, err := ParseNonNegativeInt("idle-script-interval-seconds", strconv.Itoa(c.IdleScriptIntervalSeconds)); err != nil {
		return cfgerr.New("idle-script-interval-seconds", err)
	}
	if _, err := ParseNonNegativeInt("ddi-length", strconv.Itoa(c.DDILength)); err != nil {
		return cfgerr.New("ddi-length", err)
	}
	if _, err := ParseNonNegativeInt("ddi-base-length", strconv.Itoa(c.DDIBaseLength)); err != nil {
		return cfgerr.New("ddi-base-length", err)
	}
	for _, cc := range c.Controllers {
		if _, err := ParseNonNegativeInt("controllers[].id", strconv.Itoa(cc.ID)); err != nil {
			return cfgerr.New("controllers[].id", err)
		}
	}
	return nil
}

// ParseNonNegativeInt parses a decimal configuration value, returning a
// ConfigurationError-flavoured error (via the caller wrapping it) on a
// non-numeric or negative value.
func ParseNonNegativeInt(key, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("configuration key %q: %q is not a decimal integer: %w", key, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("configuration key %q: %d must be non-negative", key, v)
	}
	return v, nil
}
