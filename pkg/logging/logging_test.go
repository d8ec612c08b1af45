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

package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		exitFunc = os.Exit
	})
	return &buf
}

func TestInfoAndDebug(t *testing.T) {
	buf := captureOutput(t)

	Info("converted %s", "job.sh")
	Debug("hidden %d", 1)
	if got := buf.String(); !strings.Contains(got, "converted job.sh") {
		t.Errorf("Info output %q does not contain message", got)
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Debug output was printed without verbose mode: %q", buf.String())
	}

	SetVerbose(true)
	Debug("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("Debug output missing in verbose mode: %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	buf := captureOutput(t)
	code := -1
	exitFunc = func(c int) { code = c }

	Fatal("boom: %v", "bad input")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "boom: bad input") {
		t.Errorf("Fatal output %q does not contain message", buf.String())
	}
}
