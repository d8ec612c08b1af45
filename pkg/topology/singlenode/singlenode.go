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

package singlenode

import (
	"batch-converter/pkg/run/batchjob"
	"batch-converter/pkg/run/slurmconf"
	"batch-converter/pkg/slurm"
	"batch-converter/pkg/topology"
	"fmt"
)

// DefaultOutputDir is where single-node artifacts are written by default.
const DefaultOutputDir = "./output"

// SingleNodeTopology runs the Slurm controller and the only compute node on
// one VM.
type SingleNodeTopology struct {
	opts topology.Options
}

// NewSingleNodeTopology creates a new single-node topology.
func NewSingleNodeTopology(opts topology.Options) *SingleNodeTopology {
	return &SingleNodeTopology{opts: opts}
}

func (s *SingleNodeTopology) Name() string {
	return slurm.SingleNode.String()
}

func (s *SingleNodeTopology) DefaultOutputDir() string {
	return DefaultOutputDir
}

func (s *SingleNodeTopology) ParseJobConfig(content string) (slurm.JobConfig, error) {
	return slurm.ParseDirectives(content, slurm.SingleNode)
}

func (s *SingleNodeTopology) GenerateScripts(cfg slurm.JobConfig) (topology.Scripts, error) {
	gpuModel := topology.GPUModel(cfg)

	gres, err := slurmconf.GenerateGresConfScript(slurmconf.GresOptions{
		GPUType: gpuModel,
		Count:   cfg.TotalGPUs,
	})
	if err != nil {
		return topology.Scripts{}, fmt.Errorf("failed to generate gres.conf script: %w", err)
	}

	conf, err := slurmconf.GenerateSingleNodeSlurmConfScript(slurmconf.SingleNodeSlurmConfOptions{
		CPUs:    cfg.TotalCPUs,
		GPUType: gpuModel,
		GPUs:    cfg.TotalGPUs,
	})
	if err != nil {
		return topology.Scripts{}, fmt.Errorf("failed to generate slurm.conf script: %w", err)
	}

	startup, err := slurmconf.GenerateSingleNodeStartupScript()
	if err != nil {
		return topology.Scripts{}, fmt.Errorf("failed to generate startup script: %w", err)
	}

	return topology.Scripts{
		GresConf:  gres,
		SlurmConf: conf,
		Startup:   startup,
		Hold:      slurmconf.SingleNodeHoldScript(s.opts.HoldSeconds),
	}, nil
}

// JobSpec requests one task whose VM carries every GPU of the job.
func (s *SingleNodeTopology) JobSpec(cfg slurm.JobConfig, scripts topology.Scripts) batchjob.Spec {
	return batchjob.Spec{
		SetupScript:      scripts.Setup(),
		HoldScript:       scripts.Hold,
		TaskCount:        1,
		AcceleratorCount: cfg.TotalGPUs,
		GPUType:          topology.GPUModel(cfg),
	}
}
