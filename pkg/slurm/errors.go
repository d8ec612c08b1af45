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

import "fmt"

// TopologyError is returned when the parsed node count does not fit the
// requested node mode, e.g. --nodes=2 for a single-node conversion.
type TopologyError struct {
	Mode  NodeMode
	Nodes int
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%s conversion supports exactly one node, but the script requests --nodes=%d", e.Mode, e.Nodes)
}

// DirectiveError reports a directive whose value cannot produce a valid JobConfig.
type DirectiveError struct {
	Directive string
	Value     string
	Reason    string
}

func (e *DirectiveError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("directive %s: %s", e.Directive, e.Reason)
	}
	return fmt.Sprintf("directive %s=%s: %s", e.Directive, e.Value, e.Reason)
}
