// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runSchema(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := NewSchemaCmd()
	cmd.Writer = out
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := cmd.Run(context.Background(), append([]string{"schema"}, args...))

	return out.String(), err
}

func TestSchemaCmd(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "json by default", want: `"$schema"`},
		{name: "yaml example", args: []string{"-f", "yaml"}, want: "jobs:"},
		{name: "markdown", args: []string{"--format", "markdown"}, want: "# taskpool batch file"},
		{name: "unknown format", args: []string{"-f", "toml"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runSchema(t, tc.args...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Contains(t, out, tc.want)
		})
	}
}
