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

package run

import (
	"batch-converter/pkg/config"
	"batch-converter/pkg/logging"
	"batch-converter/pkg/run/artifact"
	"batch-converter/pkg/run/batchjob"
	"batch-converter/pkg/slurm"
	"batch-converter/pkg/topology"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// RunOptions holds all the necessary parameters for the 'convert' command logic
type RunOptions struct {
	ScriptPath string
	Fs         afero.Fs
	Config     config.Config
}

// Result lists what a successful conversion produced.
type Result struct {
	JobConfig slurm.JobConfig
	OutputDir string
	Files     []string
}

// ExecuteRun converts one Slurm script into Batch job files. Every step runs
// before anything is written, so a failed conversion leaves no output behind.
func ExecuteRun(topo topology.Topology, opts RunOptions) (Result, error) {
	logging.Info("Converting %s as a %s job...", opts.ScriptPath, topo.Name())

	content, err := afero.ReadFile(opts.Fs, opts.ScriptPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read Slurm script %s: %w", opts.ScriptPath, err)
	}
	reportHints(string(content))

	// 1. Parse the #SBATCH header
	cfg, err := topo.ParseJobConfig(string(content))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse %s: %w", opts.ScriptPath, err)
	}
	for _, line := range strings.Split(cfg.String(), "\n") {
		logging.Info("  %s", line)
	}
	logging.Debug("GPU counts derived from --%s", cfg.GPURule)

	// 2. Generate the Slurm setup and hold scripts
	scripts, err := topo.GenerateScripts(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate %s scripts: %w", topo.Name(), err)
	}

	// 3. Build and emit the Batch job
	spec := topo.JobSpec(cfg, scripts)
	if opts.Config.Job.InferAccelerator && spec.AcceleratorCount > 0 {
		logging.Debug("Accelerator type for GPU model %q: %s", spec.GPUType,
			batchjob.AcceleratorType(spec.GPUType, opts.Config.Job.AcceleratorType))
	}
	job := batchjob.BuildJob(spec, opts.Config.Job)

	outputDir := opts.Config.OutputDir
	if outputDir == "" {
		outputDir = topo.DefaultOutputDir()
	}
	files, err := artifact.Write(opts.Fs, outputDir, job)
	if err != nil {
		return Result{}, fmt.Errorf("failed to write Batch job: %w", err)
	}
	for _, f := range files {
		logging.Info("Wrote %s", f)
	}

	return Result{JobConfig: cfg, OutputDir: outputDir, Files: files}, nil
}

func reportHints(content string) {
	for _, hint := range slurm.DirectiveHints(content) {
		if hint.Suggestion != "" {
			logging.Warn("Unrecognized directive %s ignored, did you mean %s?", hint.Flag, hint.Suggestion)
			continue
		}
		logging.Debug("Unrecognized directive %s ignored", hint.Flag)
	}
}
