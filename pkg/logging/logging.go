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

// Package logging provides printf-style helpers shared by every command.
package logging

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	logger   = newLogger(os.Stderr)
	exitFunc = os.Exit

	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		DisableQuote:           true,
	})

	if f, ok := out.(*os.File); ok {
		color.NoColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	} else {
		color.NoColor = true
	}
	return l
}

// SetOutput redirects all log output, mostly useful in tests.
func SetOutput(out io.Writer) {
	logger = newLogger(out)
}

// SetVerbose toggles debug output.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	logger.SetLevel(logrus.InfoLevel)
}

// Debug prints only when verbose output is enabled.
func Debug(f string, a ...any) {
	logger.Debugf(f, a...)
}

// Info prints an informational message.
func Info(f string, a ...any) {
	logger.Infof(f, a...)
}

// Warn prints a warning, highlighted when attached to a terminal.
func Warn(f string, a ...any) {
	logger.Warn(warnColor.Sprintf(f, a...))
}

// Error prints an error, highlighted when attached to a terminal.
func Error(f string, a ...any) {
	logger.Error(errorColor.Sprintf(f, a...))
}

// Fatal prints an error and exits with status 1.
func Fatal(f string, a ...any) {
	Error(f, a...)
	exitFunc(1)
}
