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

package config

import (
	"batch-converter/pkg/run/batchjob"
	"batch-converter/pkg/topology"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	. "gopkg.in/check.v1"
)

type MySuite struct {
	fs afero.Fs
}

var _ = Suite(&MySuite{})

func Test(t *testing.T) {
	TestingT(t)
}

func (s *MySuite) SetUpTest(c *C) {
	s.fs = afero.NewMemMapFs()
}

func newFlags(c *C, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	c.Assert(flags.Parse(args), IsNil)
	return flags
}

func setenv(c *C, key, value string) {
	c.Assert(os.Setenv(key, value), IsNil)
}

func unsetenv(names ...string) {
	for _, k := range names {
		os.Unsetenv(k)
	}
}

func (s *MySuite) writeConfig(c *C, body string) string {
	path := "/etc/batch-converter/config.yaml"
	c.Assert(afero.WriteFile(s.fs, path, []byte(body), 0644), IsNil)
	return path
}

func (s *MySuite) TestLoadDefaults(c *C) {
	cfg, err := Load(s.fs, "", newFlags(c))
	c.Assert(err, IsNil)
	c.Check(cfg.OutputDir, Equals, "")
	c.Check(cfg.Topology, DeepEquals, topology.DefaultOptions())
	c.Check(cfg.Job, DeepEquals, batchjob.DefaultOptions())
}

func (s *MySuite) TestLoadWithoutFlags(c *C) {
	cfg, err := Load(s.fs, "", nil)
	c.Assert(err, IsNil)
	c.Check(cfg.Job.Zone, Equals, batchjob.DefaultZone)
	c.Check(cfg.Topology.HoldSeconds, Equals, topology.DefaultHoldSeconds)
}

func (s *MySuite) TestLoadConfigFile(c *C) {
	path := s.writeConfig(c, `
zone: europe-west4-a
accelerator-type: nvidia-l4
hold-seconds: 600
labels:
  team: hpc
`)
	cfg, err := Load(s.fs, path, newFlags(c))
	c.Assert(err, IsNil)
	c.Check(cfg.Job.Zone, Equals, "europe-west4-a")
	c.Check(cfg.Job.AcceleratorType, Equals, "nvidia-l4")
	c.Check(cfg.Topology.HoldSeconds, Equals, 600)
	c.Check(cfg.Job.Labels, DeepEquals, map[string]string{"team": "hpc"})
	c.Check(cfg.Topology.MaxRetries, Equals, topology.DefaultMaxRetries)
}

func (s *MySuite) TestLoadMissingConfigFile(c *C) {
	_, err := Load(s.fs, "/nope/config.yaml", nil)
	c.Check(err, ErrorMatches, "failed to read config file /nope/config.yaml.*")
}

func (s *MySuite) TestPrecedence(c *C) {
	path := s.writeConfig(c, "zone: from-file\nmax-retries: 9\nretry-interval: 7\n")
	setenv(c, "BATCH_CONVERTER_ZONE", "from-env")
	setenv(c, "BATCH_CONVERTER_MAX_RETRIES", "11")
	defer unsetenv("BATCH_CONVERTER_ZONE", "BATCH_CONVERTER_MAX_RETRIES")

	cfg, err := Load(s.fs, path, newFlags(c, "--zone=from-flag"))
	c.Assert(err, IsNil)
	c.Check(cfg.Job.Zone, Equals, "from-flag")
	c.Check(cfg.Topology.MaxRetries, Equals, 11)
	c.Check(cfg.Topology.RetryInterval, Equals, 7)
}

func (s *MySuite) TestUnchangedFlagDoesNotOverride(c *C) {
	path := s.writeConfig(c, "boot-disk-size-gb: 200\n")
	cfg, err := Load(s.fs, path, newFlags(c))
	c.Assert(err, IsNil)
	c.Check(cfg.Job.BootDiskSizeGB, Equals, int64(200))
}

func (s *MySuite) TestFlags(c *C) {
	flags := newFlags(c,
		"--infer-accelerator",
		"--install-gpu-drivers=false",
		"--labels=a=1,b=2",
		"-o", "out",
	)
	cfg, err := Load(s.fs, "", flags)
	c.Assert(err, IsNil)
	c.Check(cfg.OutputDir, Equals, "out")
	c.Check(cfg.Job.InferAccelerator, Equals, true)
	c.Check(cfg.Job.InstallGPUDrivers, Equals, false)
	c.Check(cfg.Job.Labels, DeepEquals, map[string]string{"a": "1", "b": "2"})
}

func (s *MySuite) TestValidate(c *C) {
	tests := []struct {
		args []string
		err  string
	}{
		{[]string{"--hold-seconds=0"}, "hold-seconds must be positive, got 0"},
		{[]string{"--max-retries=0"}, "max-retries must be positive, got 0"},
		{[]string{"--retry-interval=-1"}, "retry-interval must be positive, got -1"},
		{[]string{"--boot-disk-size-gb=0"}, "boot-disk-size-gb must be positive, got 0"},
		{[]string{"--zone="}, "zone must not be empty"},
		{[]string{"--logs-destination=SYSLOG"}, `logs-destination must be CLOUD_LOGGING or PATH, got "SYSLOG"`},
	}
	for _, tt := range tests {
		_, err := Load(s.fs, "", newFlags(c, tt.args...))
		c.Check(err, ErrorMatches, tt.err, Commentf("args %v", tt.args))
	}
}
