// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema documents the YAML batch file. The JSON schema, the
// Markdown reference and the YAML example are all generated from the
// joblist.Definition struct tags.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/taskpool/internal/joblist"
)

const (
	// FormatJSON is a JSON schema document.
	FormatJSON = "json"
	// FormatYAML is an example batch file.
	FormatYAML = "yaml"
	// FormatMarkdown is a Markdown reference.
	FormatMarkdown = "markdown"

	draft = "https://json-schema.org/draft/2020-12/schema"
)

var (
	// ErrUnknownFormat is returned by Write for an unsupported format.
	ErrUnknownFormat = errors.New("unknown schema format")
	// ErrNotStruct is returned when a schema is requested for a non struct type.
	ErrNotStruct = errors.New("expected struct type")
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatYAML, FormatMarkdown}

// Field is one property of the batch file.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Items       string `json:"items,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Fields returns the properties of def in declaration order.
func Fields(def any) ([]Field, error) {
	t := reflect.TypeOf(def)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %v", ErrNotStruct, t)
	}

	fields := make([]Field, 0, t.NumField())

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("yaml")
		if tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = strings.ToLower(sf.Name)
		}

		f := Field{
			Name:        name,
			Type:        jsonType(sf.Type),
			Description: sf.Tag.Get("docdesc"),
			Required:    !strings.Contains(opts, "omitempty"),
		}

		if f.Type == "array" {
			f.Items = jsonType(sf.Type.Elem())
		}

		fields = append(fields, f)
	}

	return fields, nil
}

// Generate returns the JSON schema of the batch file.
func Generate() (map[string]any, error) {
	fields, err := Fields(joblist.Definition{})
	if err != nil {
		return nil, err
	}

	properties := make(map[string]any, len(fields))
	required := []string{}

	for _, f := range fields {
		prop := map[string]any{"type": f.Type}

		if f.Description != "" {
			prop["description"] = f.Description
		}

		if f.Items != "" {
			prop["items"] = map[string]any{"type": f.Items, "minLength": 1}
			prop["minItems"] = 1
		}

		if f.Type == "integer" {
			prop["minimum"] = 0
		}

		properties[f.Name] = prop

		if f.Required {
			required = append(required, f.Name)
		}
	}

	return map[string]any{
		"$schema":              draft,
		"title":                "taskpool batch file",
		"description":          "A batch of shell command lines run by taskpool on a pool of workers",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}, nil
}

// Write writes the batch file documentation to w in the given format.
func Write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return writeJSON(w)
	case FormatYAML:
		return writeYAMLExample(w)
	case FormatMarkdown:
		return writeMarkdown(w)
	}

	return fmt.Errorf("%w: %q, valid formats: %s", ErrUnknownFormat, format, strings.Join(Formats, ", "))
}

func writeJSON(w io.Writer) error {
	s, err := Generate()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(s) //nolint:wrapcheck
}

// Example is the batch written by the yaml format.
var Example = joblist.Definition{
	Name:        "nightly",
	Description: "Nightly checks",
	Workers:     4,
	Parameters:  "production",
	LogDir:      "/var/log/taskpool",
	Jobs: []string{
		"make build",
		"make test",
		`sh -c "nslookup example.com"`,
	},
}

func writeYAMLExample(w io.Writer) error {
	b, err := yaml.Marshal(Example)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = w.Write(b)

	return err //nolint:wrapcheck
}

func writeMarkdown(w io.Writer) error {
	fields, err := Fields(joblist.Definition{})
	if err != nil {
		return err
	}

	var sb strings.Builder

	sb.WriteString("# taskpool batch file\n\n")
	sb.WriteString("A YAML file with a `.yaml` or `.yml` extension, passed with `--jobsfile`.\n\n")
	sb.WriteString("| Field | Type | Required | Description |\n")
	sb.WriteString("|---|---|---|---|\n")

	for _, f := range fields {
		typ := f.Type
		if f.Items != "" {
			typ = fmt.Sprintf("%s of %s", f.Type, f.Items)
		}

		req := "no"
		if f.Required {
			req = "yes"
		}

		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", f.Name, typ, req, f.Description)
	}

	_, err = io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}
