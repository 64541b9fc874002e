// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires the respwire command-line tool: a thin cobra shell
// around the resp package, useful for inspecting captured or piped RESP
// streams without standing up a full proxy.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/respwire/respwire/confengine"
	"github.com/respwire/respwire/logger"
)

// Set at build time via -ldflags, matching the teacher's release process.
var (
	version   = "dev"
	gitHash   = "none"
	buildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "respwire",
	Short:   "Decode RESP reply streams from files or pipes",
	Version: fmt.Sprintf("%s (%s, built %s)", version, gitHash, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := maxprocs.Set(maxprocs.Logger(logger.Debugf)); err != nil {
			return fmt.Errorf("failed to set GOMAXPROCS: %w", err)
		}

		if configPath == "" {
			logger.SetOptions(logger.Options{Stdout: true, Level: "info"})
			return nil
		}
		cfg, err := confengine.LoadConfigPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		var logOpt logger.Options
		if err := cfg.UnpackChild("logger", &logOpt); err != nil {
			logOpt = logger.Options{Stdout: true, Level: "info"}
		}
		logger.SetOptions(logOpt)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (optional; flags alone are enough for the decode subcommand)")
}

// Execute runs the respwire CLI, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
