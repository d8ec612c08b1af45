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

package cmd

import (
	"batch-converter/pkg/config"
	"batch-converter/pkg/logging"
	"batch-converter/pkg/run"
	"batch-converter/pkg/topology"
	"batch-converter/pkg/topology/multinode"
	"batch-converter/pkg/topology/singlenode"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrUsage is returned when convert is not given exactly one script.
var ErrUsage = errors.New("convert takes exactly one Slurm script path")

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [flags] <slurm_script>",
		Short: "Converts a Slurm batch script into a Google Batch job.",
		Long: `The 'convert' command parses the #SBATCH directives of a Slurm batch script
and writes batch_job.json and batch_job.yaml describing an equivalent Google
Batch job.

Without --multi-node the job runs on a single VM that hosts both slurmctld and
slurmd, and the script must not request more than one node. With --multi-node
the job gets one VM per requested node; the first host runs slurmctld.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w, got %d arguments", ErrUsage, len(args))
			}
			return nil
		},
		RunE: runConvertCmd,
	}

	cmd.Flags().Bool("multi-node", false, "Convert for a multi-node cluster (one VM per Slurm node).")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runConvertCmd(cmd *cobra.Command, args []string) error {
	// Argument errors print usage, conversion errors do not.
	cmd.SilenceUsage = true

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(appFs, configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	multiNode, _ := cmd.Flags().GetBool("multi-node")
	topo := newTopology(multiNode, cfg.Topology)
	logging.Debug("Using %s topology", topo.Name())

	res, err := run.ExecuteRun(topo, run.RunOptions{
		ScriptPath: args[0],
		Fs:         appFs,
		Config:     cfg,
	})
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	logging.Info("Batch job for %s written to %s", res.JobConfig.JobName, res.OutputDir)
	return nil
}

func newTopology(multiNode bool, opts topology.Options) topology.Topology {
	if multiNode {
		return multinode.NewMultiNodeTopology(opts)
	}
	return singlenode.NewSingleNodeTopology(opts)
}
