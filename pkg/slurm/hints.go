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
	"regexp"
	"sort"

	"github.com/agext/levenshtein"
)

// maxHintDistance bounds how far a flag may be from a recognized one to be
// reported as a probable typo.
const maxHintDistance = 2

var longFlagPattern = regexp.MustCompile(`(?m)^[ \t]*#SBATCH[ \t]+(--[A-Za-z][A-Za-z-]*)`)

// ignoredFlags are valid sbatch options that have no equivalent in the
// generated job and are dropped silently.
var ignoredFlags = map[string]bool{
	"--account":        true,
	"--array":          true,
	"--constraint":     true,
	"--cpus-per-gpu":   true,
	"--error":          true,
	"--exclusive":      true,
	"--gpus":           true,
	"--mail-type":      true,
	"--mail-user":      true,
	"--mem":            true,
	"--mem-per-cpu":    true,
	"--mem-per-gpu":    true,
	"--ntasks":         true,
	"--output":         true,
	"--partition":      true,
	"--qos":            true,
	"--tasks-per-node": true,
	"--time":           true,
}

// DirectiveHint describes an #SBATCH option that is neither recognized nor a
// known sbatch option.
type DirectiveHint struct {
	Flag       string
	Suggestion string // closest recognized flag, empty when nothing is close
}

// RecognizedFlags returns the long forms of all directives ParseDirectives reads.
func RecognizedFlags() []string {
	flags := make([]string, 0, len(directivePatterns))
	for flag := range directivePatterns {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	return flags
}

// DirectiveHints lists unrecognized long options in the script, in order of
// appearance, each with the closest recognized flag when one is within
// maxHintDistance edits.
func DirectiveHints(content string) []DirectiveHint {
	recognized := RecognizedFlags()
	seen := map[string]bool{}
	var hints []DirectiveHint

	for _, m := range longFlagPattern.FindAllStringSubmatch(content, -1) {
		flag := m[1]
		if seen[flag] || ignoredFlags[flag] || directivePatterns[flag] != nil {
			continue
		}
		seen[flag] = true

		hint := DirectiveHint{Flag: flag}
		best := maxHintDistance + 1
		for _, candidate := range recognized {
			if d := levenshtein.Distance(flag, candidate, nil); d < best {
				best = d
				hint.Suggestion = candidate
			}
		}
		hints = append(hints, hint)
	}
	return hints
}
