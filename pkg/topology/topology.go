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

package topology

import (
	"batch-converter/pkg/run/batchjob"
	"batch-converter/pkg/slurm"
)

const (
	DefaultHoldSeconds   = 1800
	DefaultMaxRetries    = 5
	DefaultRetryInterval = 5
)

// Options holds the runtime parameters shared by all topologies.
// Not every topology uses every field.
type Options struct {
	HoldSeconds   int
	MaxRetries    int // multi-node controller readiness checks
	RetryInterval int // seconds between readiness checks
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HoldSeconds:   DefaultHoldSeconds,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
	}
}

// Scripts holds the generated shell fragments of a job.
type Scripts struct {
	GresConf  string
	SlurmConf string
	Startup   string
	Hold      string
}

// Setup returns the first runnable of the job: gres.conf, slurm.conf and
// daemon startup, in that order.
func (s Scripts) Setup() string {
	return s.GresConf + s.SlurmConf + s.Startup
}

// Topology defines how a Slurm resource request maps onto a Batch job.
type Topology interface {
	// Name identifies the topology in logs.
	Name() string
	// DefaultOutputDir is where artifacts go when no directory is configured.
	DefaultOutputDir() string
	// ParseJobConfig reads the #SBATCH block of a script.
	ParseJobConfig(content string) (slurm.JobConfig, error)
	// GenerateScripts renders the setup and hold scripts for cfg.
	GenerateScripts(cfg slurm.JobConfig) (Scripts, error)
	// JobSpec sizes the Batch task group for cfg.
	JobSpec(cfg slurm.JobConfig, scripts Scripts) batchjob.Spec
}

// GPUModel returns the GPU type of cfg as written to Slurm config files,
// empty when no model was requested.
func GPUModel(cfg slurm.JobConfig) string {
	if cfg.HasGPUType() {
		return cfg.GPUType
	}
	return ""
}
