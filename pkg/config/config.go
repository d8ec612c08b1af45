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

// Package config resolves converter settings. Priority (highest to lowest):
//  1. Command-line flags that were set explicitly
//  2. Environment variables (BATCH_CONVERTER_*)
//  3. The config file passed with --config
//  4. Defaults
package config

import (
	"batch-converter/pkg/run/batchjob"
	"batch-converter/pkg/topology"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BATCH_CONVERTER_ZONE.
const EnvPrefix = "BATCH_CONVERTER"

// Configuration keys. Flags registered by RegisterFlags use the same names.
const (
	KeyOutputDir         = "output-dir"
	KeyZone              = "zone"
	KeyAcceleratorType   = "accelerator-type"
	KeyInferAccelerator  = "infer-accelerator"
	KeyBootImage         = "boot-image"
	KeyBootDiskSizeGB    = "boot-disk-size-gb"
	KeyInstallGPUDrivers = "install-gpu-drivers"
	KeyHoldSeconds       = "hold-seconds"
	KeyMaxRetries        = "max-retries"
	KeyRetryInterval     = "retry-interval"
	KeyLogsDestination   = "logs-destination"
	KeyLabels            = "labels"
)

var keys = []string{
	KeyOutputDir, KeyZone, KeyAcceleratorType, KeyInferAccelerator,
	KeyBootImage, KeyBootDiskSizeGB, KeyInstallGPUDrivers, KeyHoldSeconds,
	KeyMaxRetries, KeyRetryInterval, KeyLogsDestination, KeyLabels,
}

var logsDestinations = map[string]bool{
	"CLOUD_LOGGING": true,
	"PATH":          true,
}

// Config is the resolved configuration of one conversion.
type Config struct {
	OutputDir string // empty selects the topology default
	Topology  topology.Options
	Job       batchjob.Options
}

// RegisterFlags adds a flag for every configuration key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	jobDefaults := batchjob.DefaultOptions()
	topoDefaults := topology.DefaultOptions()

	flags.StringP(KeyOutputDir, "o", "", "Directory for batch_job.json and batch_job.yaml (default ./output or ./output-multinode).")
	flags.String(KeyZone, jobDefaults.Zone, "Compute Engine zone the job may run in.")
	flags.String(KeyAcceleratorType, jobDefaults.AcceleratorType, "Accelerator type attached to each VM.")
	flags.Bool(KeyInferAccelerator, false, "Derive the accelerator type from the Slurm GPU type when it is known.")
	flags.String(KeyBootImage, jobDefaults.BootImage, "Boot disk image with Slurm installed.")
	flags.Int64(KeyBootDiskSizeGB, jobDefaults.BootDiskSizeGB, "Boot disk size in GB.")
	flags.Bool(KeyInstallGPUDrivers, jobDefaults.InstallGPUDrivers, "Install GPU drivers on VMs with accelerators.")
	flags.Int(KeyHoldSeconds, topoDefaults.HoldSeconds, "Seconds the hold runnable keeps the allocation alive.")
	flags.Int(KeyMaxRetries, topoDefaults.MaxRetries, "Multi-node slurmctld readiness checks before giving up.")
	flags.Int(KeyRetryInterval, topoDefaults.RetryInterval, "Seconds between multi-node slurmctld readiness checks.")
	flags.String(KeyLogsDestination, jobDefaults.LogsDestination, "Batch logs destination (CLOUD_LOGGING or PATH).")
	flags.StringToString(KeyLabels, jobDefaults.Labels, "Job labels; replaces the default set.")
}

func setDefaults(v *viper.Viper) {
	jobDefaults := batchjob.DefaultOptions()
	topoDefaults := topology.DefaultOptions()

	v.SetDefault(KeyOutputDir, "")
	v.SetDefault(KeyZone, jobDefaults.Zone)
	v.SetDefault(KeyAcceleratorType, jobDefaults.AcceleratorType)
	v.SetDefault(KeyInferAccelerator, false)
	v.SetDefault(KeyBootImage, jobDefaults.BootImage)
	v.SetDefault(KeyBootDiskSizeGB, jobDefaults.BootDiskSizeGB)
	v.SetDefault(KeyInstallGPUDrivers, jobDefaults.InstallGPUDrivers)
	v.SetDefault(KeyHoldSeconds, topoDefaults.HoldSeconds)
	v.SetDefault(KeyMaxRetries, topoDefaults.MaxRetries)
	v.SetDefault(KeyRetryInterval, topoDefaults.RetryInterval)
	v.SetDefault(KeyLogsDestination, jobDefaults.LogsDestination)
	v.SetDefault(KeyLabels, jobDefaults.Labels)
}

// Load resolves the configuration. configFile may be empty; flags may be nil.
// The config file is read through fs.
func Load(fs afero.Fs, configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag --%s: %w", key, err)
				}
			}
		}
	}

	cfg := Config{
		OutputDir: v.GetString(KeyOutputDir),
		Topology: topology.Options{
			HoldSeconds:   v.GetInt(KeyHoldSeconds),
			MaxRetries:    v.GetInt(KeyMaxRetries),
			RetryInterval: v.GetInt(KeyRetryInterval),
		},
		Job: batchjob.Options{
			Zone:              v.GetString(KeyZone),
			AcceleratorType:   v.GetString(KeyAcceleratorType),
			InferAccelerator:  v.GetBool(KeyInferAccelerator),
			BootImage:         v.GetString(KeyBootImage),
			BootDiskSizeGB:    v.GetInt64(KeyBootDiskSizeGB),
			InstallGPUDrivers: v.GetBool(KeyInstallGPUDrivers),
			Labels:            v.GetStringMapString(KeyLabels),
			LogsDestination:   v.GetString(KeyLogsDestination),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot produce a usable job.
func (c Config) Validate() error {
	switch {
	case c.Job.Zone == "":
		return fmt.Errorf("%s must not be empty", KeyZone)
	case c.Job.AcceleratorType == "":
		return fmt.Errorf("%s must not be empty", KeyAcceleratorType)
	case c.Job.BootImage == "":
		return fmt.Errorf("%s must not be empty", KeyBootImage)
	case c.Job.BootDiskSizeGB < 1:
		return fmt.Errorf("%s must be positive, got %d", KeyBootDiskSizeGB, c.Job.BootDiskSizeGB)
	case !logsDestinations[c.Job.LogsDestination]:
		return fmt.Errorf("%s must be CLOUD_LOGGING or PATH, got %q", KeyLogsDestination, c.Job.LogsDestination)
	case c.Topology.HoldSeconds < 1:
		return fmt.Errorf("%s must be positive, got %d", KeyHoldSeconds, c.Topology.HoldSeconds)
	case c.Topology.MaxRetries < 1:
		return fmt.Errorf("%s must be positive, got %d", KeyMaxRetries, c.Topology.MaxRetries)
	case c.Topology.RetryInterval < 1:
		return fmt.Errorf("%s must be positive, got %d", KeyRetryInterval, c.Topology.RetryInterval)
	}
	return nil
}
