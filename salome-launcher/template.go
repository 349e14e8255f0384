// Copyright 2026 The Salome Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mortbauer/salome-launcher/config"
)

func newTemplateCommand(settings *config.Settings, logger *log.Logger) *cobra.Command {
	var prereqs []string
	pyver := settings.PythonVersion
	cmd := &cobra.Command{
		Use:   "generate-config-template <modules-path> <output>",
		Short: "Write a session configuration for the modules installed under a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.CreateTemplate(args[0], config.TemplateOptions{
				PythonVersion: pyver,
				Prerequisites: prereqs,
			})
			if err != nil {
				return err
			}
			if err := config.Save(cfg, args[1]); err != nil {
				return err
			}
			logger.Info("configuration template written", "path", args[1], "modules", len(cfg.Modules))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s with %d modules\n", args[1], len(cfg.Modules))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&prereqs, "prereq", nil, "directory of prerequisite installs (repeatable)")
	cmd.Flags().StringVar(&pyver, "python-version", pyver, "python directory name under lib")
	return cmd
}
