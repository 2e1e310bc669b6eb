// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema provides the schema command for documenting the YAML batch file.
package schema

import (
	"context"
	"os"
	"strings"

	"github.com/matt-FFFFFF/taskpool/internal/schema"
	"github.com/urfave/cli/v3"
)

const formatFlag = "format"

// SchemaCmd is the command that documents the YAML batch file.
var SchemaCmd = NewSchemaCmd()

// NewSchemaCmd returns a new schema command.
func NewSchemaCmd() *cli.Command {
	return &cli.Command{
		Name:        "schema",
		Usage:       "Document the YAML batch file",
		Description: "Write the JSON schema of the YAML batch file, an example batch file, or a Markdown reference.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        formatFlag,
				Aliases:     []string{"f"},
				Usage:       "Output format: " + strings.Join(schema.Formats, ", "),
				DefaultText: schema.FormatJSON,
				Value:       schema.FormatJSON,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := cmd.Writer
			if w == nil {
				w = os.Stdout
			}

			if err := schema.Write(w, cmd.String(formatFlag)); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			return nil
		},
	}
}
