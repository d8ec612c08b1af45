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

package slurm

import (
	"fmt"
	"math"
)

const (
	// UnknownJobName is used when the script carries no --job-name.
	UnknownJobName = "Unknown"
	// NoGPUType marks a GPU request without a model.
	NoGPUType = "None"
)

// JobConfig is the normalized resource request of a Slurm batch script.
// It is built once by ParseDirectives and passed by value afterwards.
type JobConfig struct {
	JobName    string
	TotalCPUs  int
	TotalGPUs  int
	GPUType    string
	TotalTasks int
	NodeCount  int
	GPUPerNode int
	GPURule    string // directive form the GPU counts were derived from
}

// HasGPUType reports whether a concrete GPU model was requested.
func (c JobConfig) HasGPUType() bool {
	return c.GPUType != "" && c.GPUType != NoGPUType
}

func (c JobConfig) String() string {
	return fmt.Sprintf("Job Name: %s\nTotal CPUs: %d\nTotal GPUs: %d\nGPU Type: %s\nTotal Tasks: %d\nNodes: %d\nGPUs per Node: %d",
		c.JobName, c.TotalCPUs, c.TotalGPUs, c.GPUType, c.TotalTasks, c.NodeCount, c.GPUPerNode)
}

// gpuRequest is a [type:]count pair taken from --gres=gpu:... or --gpus-per-node=...
type gpuRequest struct {
	Type  string
	Count int
}

// resourceRequest holds the per-node and per-task quantities read from the script.
type resourceRequest struct {
	JobName      string
	CPUsPerTask  int
	GPUsPerTask  int
	Nodes        int
	TasksPerNode int
	Gres         *gpuRequest
	GPUsPerNode  *gpuRequest
}

// GPU derivation rules, in order of precedence.
const (
	GPURuleGres        = "gres"
	GPURuleGPUsPerNode = "gpus-per-node"
	GPURuleGPUsPerTask = "gpus-per-task"
)

// gpuAllocation is the outcome of the first matching gpuRule.
type gpuAllocation struct {
	Total   int
	PerNode int
	Type    string // empty when the rule names no model
	Rule    string
}

// multiply returns a*b for non-negative operands. The error names the
// directive whose total does not fit in an int.
func multiply(directive string, a, b int) (int, error) {
	if b != 0 && a > math.MaxInt/b {
		return 0, &DirectiveError{Directive: directive, Value: fmt.Sprintf("%d", a), Reason: "resource totals overflow"}
	}
	return a * b, nil
}

// gpuRule derives the GPU allocation from one directive form.
type gpuRule struct {
	name   string
	derive func(r resourceRequest) (gpuAllocation, bool, error)
}

// perNodeRule derives totals from a [type:]count given per node.
func perNodeRule(flag string, pick func(r resourceRequest) *gpuRequest) func(r resourceRequest) (gpuAllocation, bool, error) {
	return func(r resourceRequest) (gpuAllocation, bool, error) {
		req := pick(r)
		if req == nil {
			return gpuAllocation{}, false, nil
		}
		total, err := multiply(flag, req.Count, r.Nodes)
		if err != nil {
			return gpuAllocation{}, true, err
		}
		return gpuAllocation{Total: total, PerNode: req.Count, Type: req.Type}, true, nil
	}
}

// gpuRules are checked in order and the first applicable one wins.
// --gres takes precedence over --gpus-per-node, which takes precedence over
// the per-task count.
var gpuRules = []gpuRule{
	{name: GPURuleGres, derive: perNodeRule(FlagGres, func(r resourceRequest) *gpuRequest { return r.Gres })},
	{name: GPURuleGPUsPerNode, derive: perNodeRule(FlagGPUsPerNode, func(r resourceRequest) *gpuRequest { return r.GPUsPerNode })},
	{name: GPURuleGPUsPerTask, derive: func(r resourceRequest) (gpuAllocation, bool, error) {
		perNode, err := multiply(FlagGPUsPerTask, r.GPUsPerTask, r.TasksPerNode)
		if err != nil {
			return gpuAllocation{}, true, err
		}
		total, err := multiply(FlagGPUsPerTask, perNode, r.Nodes)
		if err != nil {
			return gpuAllocation{}, true, err
		}
		return gpuAllocation{Total: total, PerNode: perNode}, true, nil
	}},
}

func deriveGPUs(r resourceRequest) (gpuAllocation, error) {
	for _, rule := range gpuRules {
		alloc, ok, err := rule.derive(r)
		if err != nil {
			return gpuAllocation{}, err
		}
		if ok {
			alloc.Rule = rule.name
			return alloc, nil
		}
	}
	return gpuAllocation{}, nil
}

// newJobConfig computes the aggregate quantities of a request. Totals that
// overflow are reported as a *DirectiveError.
func newJobConfig(r resourceRequest) (JobConfig, error) {
	totalTasks, err := multiply(FlagNTasksPerNode, r.TasksPerNode, r.Nodes)
	if err != nil {
		return JobConfig{}, err
	}
	totalCPUs, err := multiply(FlagCPUsPerTask, r.CPUsPerTask, totalTasks)
	if err != nil {
		return JobConfig{}, err
	}
	gpus, err := deriveGPUs(r)
	if err != nil {
		return JobConfig{}, err
	}

	gpuType := NoGPUType
	if gpus.Type != "" {
		gpuType = gpus.Type
	}
	jobName := r.JobName
	if jobName == "" {
		jobName = UnknownJobName
	}

	return JobConfig{
		JobName:    jobName,
		TotalCPUs:  totalCPUs,
		TotalGPUs:  gpus.Total,
		GPUType:    gpuType,
		TotalTasks: totalTasks,
		NodeCount:  r.Nodes,
		GPUPerNode: gpus.PerNode,
		GPURule:    gpus.Rule,
	}, nil
}
