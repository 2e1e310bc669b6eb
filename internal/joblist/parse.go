// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package joblist

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
)

const (
	listSeparator = ";"
	commentPrefix = "#"
)

var (
	// ErrNoJobs is returned when a source contains no job.
	ErrNoJobs = errors.New("no jobs specified")
	// ErrInvalidYaml is returned when a batch file cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidDefinition is returned when a batch file decodes but is not usable.
	ErrInvalidDefinition = errors.New("invalid batch definition")
)

// Definition is the content of a YAML batch file. Only Jobs is required.
type Definition struct {
	Name          string   `yaml:"name,omitempty" docdesc:"Name of the batch. The batch id is derived from it."`
	Description   string   `yaml:"description,omitempty" docdesc:"Free text description of the batch"`
	Workers       int      `yaml:"workers,omitempty" docdesc:"Number of jobs run concurrently. Defaults to the number of CPUs."`
	Parameters    string   `yaml:"parameters,omitempty" docdesc:"Parameters appended to every command line"`
	LogDir        string   `yaml:"log_dir,omitempty" docdesc:"Directory for per job log files"`
	CaptureOutput bool     `yaml:"capture_output,omitempty" docdesc:"Keep job output in memory when no log directory is set"`
	Jobs          []string `yaml:"jobs" docdesc:"Command lines to run, one job each"`
}

// Validate reports every problem found in the definition.
func (d *Definition) Validate() error {
	var result *multierror.Error

	if d.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidDefinition, d.Workers))
	}

	if len(d.Jobs) == 0 {
		result = multierror.Append(result, ErrNoJobs)
	}

	for i, j := range d.Jobs {
		if strings.TrimSpace(j) == "" {
			result = multierror.Append(result, fmt.Errorf("%w: job %d is empty", ErrInvalidDefinition, i))
		}
	}

	return result.ErrorOrNil()
}

// ParseList splits a ';' separated list of command lines. Items are trimmed
// and empty items dropped.
func ParseList(list string) []string {
	var jobs []string

	for _, item := range strings.Split(list, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			jobs = append(jobs, item)
		}
	}

	return jobs
}

// ParseText reads one command line per line. Blank lines and lines starting
// with '#' are skipped.
func ParseText(data []byte) ([]string, error) {
	var jobs []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		jobs = append(jobs, line)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading jobs: %w", err)
	}

	return jobs, nil
}

// ParseDefinition decodes and validates a YAML batch file. Unknown keys are
// rejected.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.UnmarshalWithOptions(data, &def, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err) //nolint:errorlint
	}

	for i := range def.Jobs {
		def.Jobs[i] = strings.TrimSpace(def.Jobs[i])
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// WithParameters appends params, separated by a space, to every job.
// An empty params returns jobs unchanged.
func WithParameters(jobs []string, params string) []string {
	params = strings.TrimSpace(params)
	if params == "" {
		return jobs
	}

	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j + " " + params
	}

	return out
}

// IsBatchFile reports whether src names a YAML batch file.
func IsBatchFile(src string) bool {
	if i := strings.Index(src, goGetterRefSeparator); i >= 0 && IsRemote(src) {
		src = src[:i]
	}

	switch strings.ToLower(filepath.Ext(src)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
