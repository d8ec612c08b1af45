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

package slurmconf

import "fmt"

// prepareRuntimeDirs is shared by both startup scripts. Every command in it
// can be re-run safely.
const prepareRuntimeDirs = `

mkdir -p /var/spool/slurm
chmod 755 /var/spool/slurm/
touch /var/log/slurmctld.log
mkdir -p /var/log/slurm
touch /var/log/slurm/slurmd.log /var/log/slurm/slurmctld.log
touch /var/log/slurm_jobacct.log /var/log/slurm_jobcomp.log
`

// SingleNodeStartupTemplate restarts both daemons on the only host.
const SingleNodeStartupTemplate = prepareRuntimeDirs + `
systemctl restart slurmd
sleep {{.WorkerSettleSeconds}}
systemctl restart slurmctld
sleep {{.ControllerSettleSeconds}}
`

// MultiNodeStartupTemplate starts slurmctld on the leader only and waits for
// it, then joins every host as a dynamic slurmd node.
const MultiNodeStartupTemplate = prepareRuntimeDirs + `
rm -rf /var/spool/slurmctld/*
if {{.LeaderCheck}}; then
    systemctl start slurmctld
    MAX_RETRIES={{.MaxRetries}}
    RETRY_INTERVAL={{.RetryInterval}}
    for (( i=1; i<=MAX_RETRIES; i++ )); do
        if systemctl is-active --quiet slurmctld; then
            echo "slurmctld is running."
            break
        fi
        echo "Services not running. Retrying in $RETRY_INTERVAL seconds..."
        sleep $RETRY_INTERVAL
    done
fi
/usr/local/sbin/slurmd -Z --conf "Gres={{.Gres}}"
echo "printing slurmd.log"
cat /var/log/slurm/slurmd.log
echo "slurmd is running"
`

const (
	workerSettleSeconds     = 1
	controllerSettleSeconds = 2
)

// MultiNodeStartupOptions holds parameters for the multi-node startup script.
type MultiNodeStartupOptions struct {
	GPUPerNode    int
	MaxRetries    int
	RetryInterval int // seconds
}

// GenerateSingleNodeStartupScript generates the script that starts slurmd and
// slurmctld on a one-host cluster.
func GenerateSingleNodeStartupScript() (string, error) {
	data := struct {
		WorkerSettleSeconds     int
		ControllerSettleSeconds int
	}{
		WorkerSettleSeconds:     workerSettleSeconds,
		ControllerSettleSeconds: controllerSettleSeconds,
	}
	return render("singleNodeStartup", SingleNodeStartupTemplate, data)
}

// GenerateMultiNodeStartupScript generates the leader/follower startup script.
func GenerateMultiNodeStartupScript(opts MultiNodeStartupOptions) (string, error) {
	if opts.MaxRetries < 1 {
		return "", fmt.Errorf("max retries must be at least 1, got %d", opts.MaxRetries)
	}
	if opts.RetryInterval < 1 {
		return "", fmt.Errorf("retry interval must be at least 1 second, got %d", opts.RetryInterval)
	}

	data := struct {
		LeaderCheck   string
		MaxRetries    int
		RetryInterval int
		Gres          string
	}{
		LeaderCheck:   LeaderCheck,
		MaxRetries:    opts.MaxRetries,
		RetryInterval: opts.RetryInterval,
		Gres:          GresString("", opts.GPUPerNode),
	}
	return render("multiNodeStartup", MultiNodeStartupTemplate, data)
}

// SingleNodeHoldScript keeps the allocation alive for holdSeconds.
func SingleNodeHoldScript(holdSeconds int) string {
	return fmt.Sprintf("sleep %d", holdSeconds)
}

// MultiNodeHoldScript keeps the allocation alive on the leader only; followers
// finish immediately.
func MultiNodeHoldScript(holdSeconds int) string {
	return fmt.Sprintf("if %s; then\n  sleep %d\nfi", LeaderCheck, holdSeconds)
}
