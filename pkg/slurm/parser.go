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

// Package slurm extracts the resource request of a Slurm batch script from
// its #SBATCH header and normalizes it into a JobConfig.
package slurm

import (
	"regexp"
	"strconv"
)

// NodeMode selects the scheduling topology a script is converted for.
type NodeMode int

const (
	SingleNode NodeMode = iota
	MultiNode
)

func (m NodeMode) String() string {
	switch m {
	case SingleNode:
		return "single-node"
	case MultiNode:
		return "multi-node"
	default:
		return "unknown"
	}
}

// Recognized directives, keyed by their long form.
const (
	FlagJobName       = "--job-name"
	FlagCPUsPerTask   = "--cpus-per-task"
	FlagGPUsPerTask   = "--gpus-per-task"
	FlagGres          = "--gres"
	FlagGPUsPerNode   = "--gpus-per-node"
	FlagNodes         = "--nodes"
	FlagNTasksPerNode = "--ntasks-per-node"
)

const (
	nameValue = `(\S+)`
	intValue  = `(\d+)`
	gpuValue  = `(?:([^\s:,]+):)?(\d+)`
)

// directivePattern matches one #SBATCH line whose option is any of the given
// prefixes. Matching is line-anchored so each directive is read in isolation.
func directivePattern(prefixes, value string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*#SBATCH[ \t]+(?:` + prefixes + `)` + value)
}

var directivePatterns = map[string]*regexp.Regexp{
	FlagJobName:       directivePattern(`--job-name=|-J[ \t]*`, nameValue),
	FlagCPUsPerTask:   directivePattern(`--cpus-per-task=|-c[ \t]*`, intValue),
	FlagGPUsPerTask:   directivePattern(`--gpus-per-task=`, intValue),
	FlagGres:          directivePattern(`--gres=gpu:`, gpuValue),
	FlagGPUsPerNode:   directivePattern(`--gpus-per-node=`, gpuValue),
	FlagNodes:         directivePattern(`--nodes=|-N[ \t]*`, intValue),
	FlagNTasksPerNode: directivePattern(`--ntasks-per-node=`, intValue),
}

// directiveDefaults is consulted for every scalar directive that is absent.
var directiveDefaults = map[string]string{
	FlagJobName:       UnknownJobName,
	FlagCPUsPerTask:   "1",
	FlagGPUsPerTask:   "0",
	FlagNodes:         "1",
	FlagNTasksPerNode: "1",
}

// directiveSet is the first match of every recognized directive in a script.
type directiveSet map[string][]string

func extractDirectives(content string) directiveSet {
	found := directiveSet{}
	for flag, re := range directivePatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			found[flag] = m
		}
	}
	return found
}

func (d directiveSet) has(flag string) bool {
	_, ok := d[flag]
	return ok
}

func (d directiveSet) value(flag string) string {
	if m, ok := d[flag]; ok {
		return m[1]
	}
	return directiveDefaults[flag]
}

func (d directiveSet) intValue(flag string) (int, error) {
	raw := d.value(flag)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &DirectiveError{Directive: flag, Value: raw, Reason: "not a valid integer"}
	}
	return n, nil
}

func (d directiveSet) gpuRequest(flag string) (*gpuRequest, error) {
	m, ok := d[flag]
	if !ok {
		return nil, nil
	}
	count, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &DirectiveError{Directive: flag, Value: m[0], Reason: "not a valid GPU count"}
	}
	return &gpuRequest{Type: m[1], Count: count}, nil
}

// ParseDirectives reads the #SBATCH header of a batch script and returns the
// normalized resource request. Unrecognized lines are ignored and absent
// directives take their defaults. In SingleNode mode a node count other than
// one is a *TopologyError; in MultiNode mode --nodes must be present.
func ParseDirectives(content string, mode NodeMode) (JobConfig, error) {
	found := extractDirectives(content)

	req, err := newResourceRequest(found)
	if err != nil {
		return JobConfig{}, err
	}

	switch mode {
	case SingleNode:
		if req.Nodes != 1 {
			return JobConfig{}, &TopologyError{Mode: mode, Nodes: req.Nodes}
		}
	case MultiNode:
		if !found.has(FlagNodes) {
			return JobConfig{}, &DirectiveError{Directive: FlagNodes, Reason: "required for multi-node conversion"}
		}
		if req.Nodes < 1 {
			return JobConfig{}, &DirectiveError{Directive: FlagNodes, Value: found.value(FlagNodes), Reason: "must be at least 1"}
		}
	}

	return newJobConfig(req)
}

func newResourceRequest(found directiveSet) (resourceRequest, error) {
	req := resourceRequest{JobName: found.value(FlagJobName)}

	ints := []struct {
		flag string
		dst  *int
	}{
		{FlagCPUsPerTask, &req.CPUsPerTask},
		{FlagGPUsPerTask, &req.GPUsPerTask},
		{FlagNodes, &req.Nodes},
		{FlagNTasksPerNode, &req.TasksPerNode},
	}
	for _, f := range ints {
		n, err := found.intValue(f.flag)
		if err != nil {
			return resourceRequest{}, err
		}
		*f.dst = n
	}
	if req.TasksPerNode < 1 {
		return resourceRequest{}, &DirectiveError{Directive: FlagNTasksPerNode, Value: found.value(FlagNTasksPerNode), Reason: "must be at least 1"}
	}

	var err error
	if req.Gres, err = found.gpuRequest(FlagGres); err != nil {
		return resourceRequest{}, err
	}
	if req.GPUsPerNode, err = found.gpuRequest(FlagGPUsPerNode); err != nil {
		return resourceRequest{}, err
	}
	return req, nil
}
