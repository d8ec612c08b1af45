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

// Package artifact serializes a Batch job into the files handed to users:
// batch_job.json and batch_job.yaml.
package artifact

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	batch "google.golang.org/api/batch/v1"
	"gopkg.in/yaml.v3"
)

const (
	JSONFileName = "batch_job.json"
	YAMLFileName = "batch_job.yaml"
)

// Artifacts are the rendered forms of one job.
type Artifacts struct {
	JSON []byte
	YAML []byte
}

// Render serializes job as indented JSON and as YAML. Multi-line strings, the
// runnable scripts in particular, use the YAML literal block style.
func Render(job *batch.Job) (Artifacts, error) {
	js, err := marshalJSON(job)
	if err != nil {
		return Artifacts{}, err
	}

	ys, err := jsonToYAML(js)
	if err != nil {
		return Artifacts{}, err
	}
	return Artifacts{JSON: js, YAML: ys}, nil
}

// marshalJSON renders job with four-space indentation. The API types escape
// HTML characters, which would mangle heredocs like "cat <<EOF", so the
// document is re-encoded without escaping.
func marshalJSON(job *batch.Job) ([]byte, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal job as JSON")
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode job JSON")
	}
	unquoteInts(doc)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "failed to encode job as JSON")
	}
	return buf.Bytes(), nil
}

// intFields are the int64 fields of the Batch API that it encodes as strings.
var intFields = map[string]bool{
	"count":     true,
	"taskCount": true,
	"sizeGb":    true,
}

// unquoteInts turns the string-encoded int64 fields of doc back into numbers.
func unquoteInts(doc interface{}) {
	switch v := doc.(type) {
	case map[string]interface{}:
		for key, val := range v {
			if str, ok := val.(string); ok && intFields[key] {
				if _, err := strconv.ParseInt(str, 10, 64); err == nil {
					v[key] = json.Number(str)
				}
				continue
			}
			unquoteInts(val)
		}
	case []interface{}:
		for _, val := range v {
			unquoteInts(val)
		}
	}
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key order.
func jsonToYAML(js []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(js, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode job JSON")
	}
	restyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to encode job as YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode job as YAML")
	}
	return buf.Bytes(), nil
}

// restyle drops the flow and quoting styles inherited from JSON. The encoder
// still quotes strings that would otherwise read as numbers or booleans.
func restyle(n *yaml.Node) {
	n.Style = 0
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		restyle(c)
	}
}

// Write renders job and stores both files in dir, creating it if needed.
// Nothing is written when rendering fails.
func Write(fs afero.Fs, dir string, job *batch.Job) ([]string, error) {
	out, err := Render(job)
	if err != nil {
		return nil, err
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	files := []struct {
		name string
		data []byte
	}{
		{JSONFileName, out.JSON},
		{YAMLFileName, out.YAML},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := afero.WriteFile(fs, path, f.data, 0644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
