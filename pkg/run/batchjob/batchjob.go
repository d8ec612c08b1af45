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

package batchjob

import (
	"strings"

	batch "google.golang.org/api/batch/v1"
)

const (
	DefaultZone            = "us-central1-a"
	DefaultAcceleratorType = "nvidia-tesla-v100"
	DefaultBootImage       = "projects/projectofbob/global/images/image-ias-test"
	DefaultBootDiskSizeGB  = 50
	DefaultLogsDestination = "CLOUD_LOGGING"

	// DWSLabel asks Batch to provision the job through Dynamic Workload Scheduler.
	DWSLabel = "goog-batch-dynamic-workload-scheduler"
)

// Options holds the target-platform settings that do not come from the
// Slurm script.
type Options struct {
	Zone              string
	AcceleratorType   string
	InferAccelerator  bool // derive AcceleratorType from the Slurm GPU type when known
	BootImage         string
	BootDiskSizeGB    int64
	InstallGPUDrivers bool
	Labels            map[string]string
	LogsDestination   string
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Zone:              DefaultZone,
		AcceleratorType:   DefaultAcceleratorType,
		BootImage:         DefaultBootImage,
		BootDiskSizeGB:    DefaultBootDiskSizeGB,
		InstallGPUDrivers: true,
		Labels:            map[string]string{DWSLabel: "true"},
		LogsDestination:   DefaultLogsDestination,
	}
}

// Spec is the topology-dependent part of a job: the generated scripts and the
// counts derived from the resource request.
type Spec struct {
	SetupScript      string
	HoldScript       string
	TaskCount        int
	AcceleratorCount int    // accelerators attached to each VM
	GPUType          string // Slurm GPU model, empty when unknown
	RequireHostsFile bool
}

// gpuTypeAccelerators maps Slurm GPU model names to Compute Engine accelerator types.
var gpuTypeAccelerators = map[string]string{
	"a100":      "nvidia-tesla-a100",
	"a100-80gb": "nvidia-a100-80gb",
	"h100":      "nvidia-h100-80gb",
	"l4":        "nvidia-l4",
	"p100":      "nvidia-tesla-p100",
	"p4":        "nvidia-tesla-p4",
	"t4":        "nvidia-tesla-t4",
	"v100":      "nvidia-tesla-v100",
}

// AcceleratorType returns the Compute Engine accelerator for a Slurm GPU type,
// falling back to fallback for unknown types.
func AcceleratorType(gpuType, fallback string) string {
	if acc, ok := gpuTypeAccelerators[strings.ToLower(gpuType)]; ok {
		return acc
	}
	return fallback
}

// BuildJob assembles the Batch job. It only arranges its inputs; all
// validation happens while parsing the Slurm script. The accelerator entry and
// the driver flag are always present, a CPU-only job requests zero accelerators.
func BuildJob(spec Spec, opts Options) *batch.Job {
	accType := opts.AcceleratorType
	if opts.InferAccelerator {
		accType = AcceleratorType(spec.GPUType, opts.AcceleratorType)
	}

	policy := &batch.InstancePolicy{
		Accelerators: []*batch.Accelerator{{
			Type:            accType,
			Count:           int64(spec.AcceleratorCount),
			ForceSendFields: []string{"Count"},
		}},
		BootDisk: &batch.Disk{
			Image:  opts.BootImage,
			SizeGb: opts.BootDiskSizeGB,
		},
	}

	labels := make(map[string]string, len(opts.Labels))
	for k, v := range opts.Labels {
		labels[k] = v
	}

	return &batch.Job{
		TaskGroups: []*batch.TaskGroup{{
			TaskSpec: &batch.TaskSpec{
				Runnables: []*batch.Runnable{
					{Script: &batch.Script{Text: spec.SetupScript}},
					{Script: &batch.Script{Text: spec.HoldScript}},
				},
			},
			TaskCount:        int64(spec.TaskCount),
			RequireHostsFile: spec.RequireHostsFile,
		}},
		AllocationPolicy: &batch.AllocationPolicy{
			Location: &batch.LocationPolicy{
				AllowedLocations: []string{"zones/" + opts.Zone},
			},
			Instances: []*batch.InstancePolicyOrTemplate{{
				Policy:            policy,
				InstallGpuDrivers: opts.InstallGPUDrivers,
				ForceSendFields:   []string{"InstallGpuDrivers"},
			}},
		},
		Labels: labels,
		LogsPolicy: &batch.LogsPolicy{
			Destination: opts.LogsDestination,
		},
	}
}
