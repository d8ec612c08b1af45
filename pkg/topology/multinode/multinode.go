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

package multinode

import (
	"batch-converter/pkg/run/batchjob"
	"batch-converter/pkg/run/slurmconf"
	"batch-converter/pkg/slurm"
	"batch-converter/pkg/topology"
	"fmt"
)

// DefaultOutputDir is where multi-node artifacts are written by default.
const DefaultOutputDir = "./output-multinode"

// MultiNodeTopology spreads the job over one VM per Slurm node. The first host
// in the Batch hosts file runs slurmctld and every host joins as a dynamic
// slurmd node.
type MultiNodeTopology struct {
	opts topology.Options
}

// NewMultiNodeTopology creates a new multi-node topology.
func NewMultiNodeTopology(opts topology.Options) *MultiNodeTopology {
	return &MultiNodeTopology{opts: opts}
}

func (m *MultiNodeTopology) Name() string {
	return slurm.MultiNode.String()
}

func (m *MultiNodeTopology) DefaultOutputDir() string {
	return DefaultOutputDir
}

func (m *MultiNodeTopology) ParseJobConfig(content string) (slurm.JobConfig, error) {
	return slurm.ParseDirectives(content, slurm.MultiNode)
}

func (m *MultiNodeTopology) GenerateScripts(cfg slurm.JobConfig) (topology.Scripts, error) {
	gres, err := slurmconf.GenerateGresConfScript(slurmconf.GresOptions{
		GPUType:    topology.GPUModel(cfg),
		Count:      cfg.GPUPerNode,
		AutoDetect: true,
	})
	if err != nil {
		return topology.Scripts{}, fmt.Errorf("failed to generate gres.conf script: %w", err)
	}

	conf, err := slurmconf.GenerateMultiNodeSlurmConfScript(slurmconf.MultiNodeSlurmConfOptions{
		MaxNodeCount: cfg.NodeCount,
	})
	if err != nil {
		return topology.Scripts{}, fmt.Errorf("failed to generate slurm.conf script: %w", err)
	}

	startup, err := slurmconf.GenerateMultiNodeStartupScript(slurmconf.MultiNodeStartupOptions{
		GPUPerNode:    cfg.GPUPerNode,
		MaxRetries:    m.opts.MaxRetries,
		RetryInterval: m.opts.RetryInterval,
	})
	if err != nil {
		return topology.Scripts{}, fmt.Errorf("failed to generate startup script: %w", err)
	}

	return topology.Scripts{
		GresConf:  gres,
		SlurmConf: conf,
		Startup:   startup,
		Hold:      slurmconf.MultiNodeHoldScript(m.opts.HoldSeconds),
	}, nil
}

// JobSpec requests one task per node, each VM carrying the per-node GPUs.
func (m *MultiNodeTopology) JobSpec(cfg slurm.JobConfig, scripts topology.Scripts) batchjob.Spec {
	return batchjob.Spec{
		SetupScript:      scripts.Setup(),
		HoldScript:       scripts.Hold,
		TaskCount:        cfg.NodeCount,
		AcceleratorCount: cfg.GPUPerNode,
		GPUType:          topology.GPUModel(cfg),
		RequireHostsFile: true,
	}
}
