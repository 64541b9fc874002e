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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/respwire/respwire/confengine"
	"github.com/respwire/respwire/internal/rescue"
	"github.com/respwire/respwire/internal/sigs"
	"github.com/respwire/respwire/logger"
	"github.com/respwire/respwire/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose parser metrics (and optionally pprof) over HTTP until terminated",
	Example: "# respwire serve --config respwire.yaml\n" +
		"# curl localhost:9090/metrics",
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	defer rescue.HandleCrash()

	var cfg *confengine.Config
	if configPath != "" {
		loaded, err := confengine.LoadConfigPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		loaded, err := confengine.LoadContent([]byte("server:\n  enabled: true\n  address: :9090\n  pprof: false\n  timeout: 30s\n"))
		if err != nil {
			return err
		}
		cfg = loaded
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if srv == nil {
		return fmt.Errorf("server.enabled is false in the given configuration")
	}

	errCh := make(chan error, 1)
	go func() {
		defer rescue.HandleCrash()
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigs.Terminate():
		logger.Infof("received termination signal, shutting down")
		return srv.Close()
	}
}
