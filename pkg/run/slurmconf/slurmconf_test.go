// Copyright 2026 "Google LLC"
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slurmconf

import (
	"strings"
	"testing"
)

// heredocBody returns the lines written between "cat <<EOF" and "EOF".
func heredocBody(t *testing.T, script string) []string {
	t.Helper()

	start := strings.Index(script, "<<EOF")
	if start < 0 {
		t.Fatalf("heredoc start not found in script:\n%s", script)
	}
	rest := script[start:]
	rest = rest[strings.Index(rest, "\n")+1:]

	end := strings.Index(rest, "\nEOF\n")
	if end < 0 {
		if strings.HasPrefix(rest, "EOF\n") {
			return nil
		}
		t.Fatalf("heredoc end not found in script:\n%s", script)
	}
	return strings.Split(rest[:end], "\n")
}

// assertContainsLines checks that every expected line appears verbatim.
func assertContainsLines(t *testing.T, script string, want ...string) {
	t.Helper()

	lines := map[string]bool{}
	for _, l := range strings.Split(script, "\n") {
		lines[l] = true
	}
	for _, w := range want {
		if !lines[w] {
			t.Errorf("Expected line %q in script:\n%s", w, script)
		}
	}
}

func deviceLines(body []string) []string {
	var out []string
	for _, l := range body {
		if strings.HasPrefix(l, "Name=gpu") {
			out = append(out, l)
		}
	}
	return out
}

func TestGenerateGresConfScript(t *testing.T) {
	tests := []struct {
		name            string
		opts            GresOptions
		expectedDevices []string
		expectedAuto    bool
	}{
		{
			name:            "No GPUs",
			opts:            GresOptions{},
			expectedDevices: nil,
		},
		{
			name: "Typed GPUs",
			opts: GresOptions{GPUType: "v100", Count: 2},
			expectedDevices: []string{
				"Name=gpu Type=v100 File=/dev/nvidia0",
				"Name=gpu Type=v100 File=/dev/nvidia1",
			},
		},
		{
			name: "Untyped GPUs",
			opts: GresOptions{Count: 3},
			expectedDevices: []string{
				"Name=gpu File=/dev/nvidia0",
				"Name=gpu File=/dev/nvidia1",
				"Name=gpu File=/dev/nvidia2",
			},
		},
		{
			name: "Auto detect with typed GPUs",
			opts: GresOptions{GPUType: "typeX", Count: 1, AutoDetect: true},
			expectedDevices: []string{
				"Name=gpu Type=typeX File=/dev/nvidia0",
			},
			expectedAuto: true,
		},
		{
			name:            "Auto detect without GPUs",
			opts:            GresOptions{AutoDetect: true},
			expectedDevices: nil,
			expectedAuto:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := GenerateGresConfScript(tt.opts)
			if err != nil {
				t.Fatalf("GenerateGresConfScript failed: %v", err)
			}

			if !strings.HasPrefix(script, "#!/bin/bash\n") {
				t.Errorf("Expected shebang at start of script:\n%s", script)
			}
			assertContainsLines(t, script,
				"cat <<EOF > /usr/local/etc/slurm/gres.conf",
				"# Define GPU resources",
				"EOF",
			)

			body := heredocBody(t, script)
			got := deviceLines(body)
			if len(got) != len(tt.expectedDevices) {
				t.Fatalf("Expected %d device lines, got %d:\n%s", len(tt.expectedDevices), len(got), script)
			}
			for i := range got {
				if got[i] != tt.expectedDevices[i] {
					t.Errorf("Device line %d: expected %q, got %q", i, tt.expectedDevices[i], got[i])
				}
			}

			hasAuto := strings.Contains(script, "AutoDetect=nvml")
			if hasAuto != tt.expectedAuto {
				t.Errorf("Expected AutoDetect=%v, got %v", tt.expectedAuto, hasAuto)
			}
			if tt.expectedAuto && len(got) > 0 && strings.Index(script, "AutoDetect=nvml") > strings.Index(script, got[0]) {
				t.Errorf("AutoDetect must precede device lines:\n%s", script)
			}
		})
	}
}

func TestGenerateGresConfScriptZeroGPUsSkeleton(t *testing.T) {
	script, err := GenerateGresConfScript(GresOptions{GPUType: "v100"})
	if err != nil {
		t.Fatalf("GenerateGresConfScript failed: %v", err)
	}
	want := "#!/bin/bash\n\n# Script to configure Slurm's GPU resources in gres.conf\n\n" +
		"cat <<EOF > /usr/local/etc/slurm/gres.conf\n# Define GPU resources\nEOF\n"
	if script != want {
		t.Errorf("Expected script %q, got %q", want, script)
	}
}

func TestGenerateSingleNodeSlurmConfScript(t *testing.T) {
	tests := []struct {
		name         string
		opts         SingleNodeSlurmConfOptions
		expectedNode string
		expectedPart string
	}{
		{
			name:         "Typed GPUs",
			opts:         SingleNodeSlurmConfOptions{CPUs: 4, GPUType: "v100", GPUs: 2},
			expectedNode: "NodeName=$(hostname) CPUs=4 Gres=gpu:v100:2 State=UNKNOWN",
			expectedPart: "PartitionName=googlebatch Nodes=$(hostname) Default=YES MaxTime=INFINITE State=UP",
		},
		{
			name:         "CPU only",
			opts:         SingleNodeSlurmConfOptions{CPUs: 16},
			expectedNode: "NodeName=$(hostname) CPUs=16 Gres=gpu:0 State=UNKNOWN",
			expectedPart: "PartitionName=googlebatch Nodes=$(hostname) Default=YES MaxTime=INFINITE State=UP",
		},
		{
			name:         "Custom partition",
			opts:         SingleNodeSlurmConfOptions{CPUs: 1, GPUs: 8, Partition: "debug"},
			expectedNode: "NodeName=$(hostname) CPUs=1 Gres=gpu:8 State=UNKNOWN",
			expectedPart: "PartitionName=debug Nodes=$(hostname) Default=YES MaxTime=INFINITE State=UP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := GenerateSingleNodeSlurmConfScript(tt.opts)
			if err != nil {
				t.Fatalf("GenerateSingleNodeSlurmConfScript failed: %v", err)
			}
			assertContainsLines(t, script,
				"cat <<EOF > /usr/local/etc/slurm/slurm.conf",
				"SlurmctldHost=$(hostname)",
				"SlurmctldPort=6817",
				"SlurmdPort=6818",
				"SchedulerType=sched/backfill",
				"AccountingStorageType=accounting_storage/none",
				"SelectType=select/cons_tres",
				tt.expectedNode,
				tt.expectedPart,
			)

			body := heredocBody(t, script)
			if last := body[len(body)-1]; last != tt.expectedPart {
				t.Errorf("Expected partition as last slurm.conf line, got %q", last)
			}
		})
	}
}

func TestGenerateMultiNodeSlurmConfScript(t *testing.T) {
	script, err := GenerateMultiNodeSlurmConfScript(MultiNodeSlurmConfOptions{MaxNodeCount: 4})
	if err != nil {
		t.Fatalf("GenerateMultiNodeSlurmConfScript failed: %v", err)
	}
	assertContainsLines(t, script,
		"ClusterName=${BATCH_JOB_ID}",
		"SlurmctldHost=$(head -1 ${BATCH_HOSTS_FILE})",
		"ReturnToService=2",
		"JobAcctGatherType=jobacct_gather/none",
		"MaxNodeCount=4",
		"PartitionName=all  Nodes=ALL Default=yes",
	)
	if strings.Contains(script, "NodeName=") {
		t.Errorf("Multi-node slurm.conf must not declare node names:\n%s", script)
	}
}

func TestGeneratorsAreIdempotent(t *testing.T) {
	generators := map[string]func() (string, error){
		"gres": func() (string, error) {
			return GenerateGresConfScript(GresOptions{GPUType: "a100", Count: 4, AutoDetect: true})
		},
		"single slurm.conf": func() (string, error) {
			return GenerateSingleNodeSlurmConfScript(SingleNodeSlurmConfOptions{CPUs: 8, GPUType: "a100", GPUs: 4})
		},
		"multi slurm.conf": func() (string, error) {
			return GenerateMultiNodeSlurmConfScript(MultiNodeSlurmConfOptions{MaxNodeCount: 3})
		},
	}

	for name, generate := range generators {
		t.Run(name, func(t *testing.T) {
			first, err := generate()
			if err != nil {
				t.Fatalf("first generation failed: %v", err)
			}
			second, err := generate()
			if err != nil {
				t.Fatalf("second generation failed: %v", err)
			}
			if first != second {
				t.Errorf("Generated scripts differ:\n%s\n---\n%s", first, second)
			}
		})
	}
}

func TestGresString(t *testing.T) {
	if got := GresString("v100", 2); got != "gpu:v100:2" {
		t.Errorf("GresString(v100, 2) = %q", got)
	}
	if got := GresString("", 0); got != "gpu:0" {
		t.Errorf("GresString(\"\", 0) = %q", got)
	}
}
