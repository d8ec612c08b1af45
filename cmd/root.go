// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd defines the batch-converter command line.
package cmd

import (
	"batch-converter/pkg/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is the file system scripts are read from and artifacts written to.
var appFs = afero.NewOsFs()

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch-converter",
		Short: "Converts Slurm batch scripts into Google Batch jobs.",
		Long: `batch-converter reads the #SBATCH header of a Slurm batch script and writes
a Google Batch job (JSON and YAML) that provisions VMs, configures Slurm on
them and keeps the allocation open for the workload.`,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logging.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug output.")
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file.")
	cmd.AddCommand(newConvertCmd())
	return cmd
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("%v", err)
	}
}
