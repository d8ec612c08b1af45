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

// Package slurmconf renders the shell scripts that configure and start Slurm
// on the VMs of a Batch job. The scripts write gres.conf and slurm.conf through
// heredocs and are evaluated only on the target VMs.
package slurmconf

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	// ConfDir is where the Slurm image expects slurm.conf and gres.conf.
	ConfDir = "/usr/local/etc/slurm"

	// LeaderCheck succeeds on the first host listed in the Batch hosts file.
	LeaderCheck = "grep -qFx $(/bin/hostname) <(head -1 $BATCH_HOSTS_FILE)"
)

// GresConfTemplate writes gres.conf with one line per local GPU device.
const GresConfTemplate = `#!/bin/bash

# Script to configure Slurm's GPU resources in gres.conf

cat <<EOF > {{.ConfDir}}/gres.conf
# Define GPU resources
{{- if .AutoDetect}}
AutoDetect=nvml
{{- end}}
{{- range .Devices}}
Name=gpu{{if $.GPUType}} Type={{$.GPUType}}{{end}} File=/dev/nvidia{{.}}
{{- end}}
EOF
`

// SingleNodeSlurmConfTemplate declares the local host as controller, the only
// compute node and the only partition.
const SingleNodeSlurmConfTemplate = `

cat <<EOF > {{.ConfDir}}/slurm.conf
SlurmctldHost=$(hostname)
AuthType=auth/munge
CryptoType=crypto/munge
ProctrackType=proctrack/pgid
ReturnToService=1
GresTypes=gpu
SlurmctldPidFile=/var/run/slurm/slurmctld.pid
SlurmctldPort=6817
SlurmdPidFile=/var/run/slurm/slurmd.pid
SlurmdPort=6818
SlurmdLogFile=/var/log/slurm/slurmd.log
SlurmctldLogFile=/var/log/slurm/slurmctld.log
SlurmdSpoolDir=/var/spool/slurmd
SlurmUser=root
StateSaveLocation=/var/spool/slurmctld
SwitchType=switch/none
TaskPlugin=task/none
InactiveLimit=0
KillWait=30
MinJobAge=300
SlurmctldTimeout=120
SlurmdTimeout=300
SchedulerType=sched/backfill
AccountingStorageType=accounting_storage/none
ClusterName=cluster
SelectType=select/cons_tres
SelectTypeParameters=CR_Core
JobAcctGatherType=jobacct_gather/linux
SlurmctldDebug=3
SlurmdDebug=3
NodeName=$(hostname) CPUs={{.CPUs}} Gres={{.Gres}} State=UNKNOWN
PartitionName={{.Partition}} Nodes=$(hostname) Default=YES MaxTime=INFINITE State=UP
EOF
`

// MultiNodeSlurmConfTemplate leaves node discovery to runtime: the controller
// is the first host of the Batch hosts file and every slurmd registers itself
// dynamically (slurmd -Z) into the catch-all partition.
const MultiNodeSlurmConfTemplate = `

cat <<EOF > {{.ConfDir}}/slurm.conf
ClusterName=${BATCH_JOB_ID}
SlurmctldHost=$(head -1 ${BATCH_HOSTS_FILE})
AuthType=auth/munge

ProctrackType=proctrack/pgid
ReturnToService=2

# For GPU resource
GresTypes=gpu

SlurmctldPidFile=/var/run/slurm/slurmctld.pid
SlurmdPidFile=/var/run/slurm/slurmd.pid
# slurm logs
SlurmdLogFile=/var/log/slurm/slurmd.log
SlurmctldLogFile=/var/log/slurm/slurmctld.log
SlurmdSpoolDir=/var/spool/slurmd

SlurmUser=root
StateSaveLocation=/var/spool/slurmctld
TaskPlugin=task/none
SchedulerType=sched/backfill
SelectTypeParameters=CR_Core

# Turn off both types of accounting
JobAcctGatherFrequency=0
JobAcctGatherType=jobacct_gather/none
AccountingStorageType=accounting_storage/none

SlurmctldDebug=3
SlurmdDebug=3
SelectType=select/cons_tres
MaxNodeCount={{.MaxNodeCount}}
PartitionName=all  Nodes=ALL Default=yes
EOF
`

// GresOptions holds parameters for gres.conf generation.
type GresOptions struct {
	GPUType    string // empty when the model is unknown
	Count      int    // GPUs attached to one VM
	AutoDetect bool   // emit AutoDetect=nvml ahead of the device lines
}

// SingleNodeSlurmConfOptions holds parameters for the single-node slurm.conf.
type SingleNodeSlurmConfOptions struct {
	CPUs      int
	GPUType   string
	GPUs      int
	Partition string
}

// MultiNodeSlurmConfOptions holds parameters for the multi-node slurm.conf.
type MultiNodeSlurmConfOptions struct {
	MaxNodeCount int
}

// DefaultPartition is the partition name of single-node clusters.
const DefaultPartition = "googlebatch"

// GresString formats a generic resource request, e.g. gpu:v100:2 or gpu:2.
func GresString(gpuType string, count int) string {
	if gpuType == "" {
		return fmt.Sprintf("gpu:%d", count)
	}
	return fmt.Sprintf("gpu:%s:%d", gpuType, count)
}

// GenerateGresConfScript generates the script writing gres.conf.
func GenerateGresConfScript(opts GresOptions) (string, error) {
	devices := make([]int, 0, max(opts.Count, 0))
	for i := 0; i < opts.Count; i++ {
		devices = append(devices, i)
	}

	data := struct {
		ConfDir    string
		AutoDetect bool
		GPUType    string
		Devices    []int
	}{
		ConfDir:    ConfDir,
		AutoDetect: opts.AutoDetect,
		GPUType:    opts.GPUType,
		Devices:    devices,
	}
	return render("gresConf", GresConfTemplate, data)
}

// GenerateSingleNodeSlurmConfScript generates the script writing slurm.conf
// for a one-host cluster.
func GenerateSingleNodeSlurmConfScript(opts SingleNodeSlurmConfOptions) (string, error) {
	partition := opts.Partition
	if partition == "" {
		partition = DefaultPartition
	}

	data := struct {
		ConfDir   string
		CPUs      int
		Gres      string
		Partition string
	}{
		ConfDir:   ConfDir,
		CPUs:      opts.CPUs,
		Gres:      GresString(opts.GPUType, opts.GPUs),
		Partition: partition,
	}
	return render("singleNodeSlurmConf", SingleNodeSlurmConfTemplate, data)
}

// GenerateMultiNodeSlurmConfScript generates the script writing slurm.conf for
// a cluster whose hosts are only known at runtime.
func GenerateMultiNodeSlurmConfScript(opts MultiNodeSlurmConfOptions) (string, error) {
	data := struct {
		ConfDir      string
		MaxNodeCount int
	}{
		ConfDir:      ConfDir,
		MaxNodeCount: opts.MaxNodeCount,
	}
	return render("multiNodeSlurmConf", MultiNodeSlurmConfTemplate, data)
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
