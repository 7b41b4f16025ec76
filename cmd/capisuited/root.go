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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/larsimmisch/capisuite/cfg"
)

func decodeConfig(target *cfg.Config) error {
	return viper.Unmarshal(target, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		cfg.StringToStringSliceHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
}

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	suiteConfig   cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "capisuited [flags]",
	Short: "Mediate between CAPI 2.0 and call-handling scripts over ISDN",
	Long: `capisuited is a daemon that mediates between COMMON-ISDN-API (CAPI
2.0) and user-supplied call-handling scripts, so a single host can act as
answering machine, fax sender/receiver, and voice dispatcher over ISDN.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := suiteConfig.Validate(); err != nil {
			return err
		}
		return runServe(&suiteConfig)
	},
}

// Execute runs the root command, exiting with status 1 on any error in
// the same manner as the teacher's cmd.Execute.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML configuration file.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		unmarshalErr = decodeConfig(&suiteConfig)
		return
	}

	abs, err := filepath.Abs(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(abs)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
		return
	}
	unmarshalErr = decodeConfig(&suiteConfig)
}
