// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package joblist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/taskpool/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	goGetterPathSeparator   = "//"
	goGetterRefSeparator    = "?"
	goGetterForceSeparator  = "::"
	goGetterSchemeSeparator = "://"
	minimumGetterParts      = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

var (
	// ErrReadJobsFile is returned when a local jobs file cannot be read.
	ErrReadJobsFile = errors.New("failed to read jobs file")
	// ErrGetJobsFile is returned when a remote jobs file cannot be fetched.
	ErrGetJobsFile = errors.New("failed to get jobs file")
)

// IsRemote reports whether src must be fetched with go-getter rather than
// read from the local filesystem.
func IsRemote(src string) bool {
	return strings.Contains(src, goGetterSchemeSeparator) || strings.Contains(src, goGetterForceSeparator)
}

// Read returns the content of a jobs source, local or remote.
func Read(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, ErrReadJobsFile
	}

	if IsRemote(src) {
		return Fetch(ctx, src)
	}

	data, err := afero.ReadFile(FsFactory(), src)
	if err != nil {
		return nil, errors.Join(ErrReadJobsFile, err)
	}

	return data, nil
}

// Load reads src and returns its definition. A plain jobs file yields a
// definition holding only the jobs.
func Load(ctx context.Context, src string) (*Definition, error) {
	data, err := Read(ctx, src)
	if err != nil {
		return nil, err
	}

	if IsBatchFile(src) {
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}

		ctxlog.Debug(ctx, "loaded batch file", "source", src, "jobs", len(def.Jobs))

		return def, nil
	}

	jobs, err := ParseText(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrNoJobs)
	}

	ctxlog.Debug(ctx, "loaded jobs file", "source", src, "jobs", len(jobs))

	return &Definition{Jobs: jobs}, nil
}

// Fetch retrieves a remote jobs file using Hashicorp's go-getter.
// A URL with a '//' subdirectory is fetched as a directory and the file read
// from it; any other URL is fetched as a single file. The temporary copy is
// removed before returning.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrGetJobsFile
	}

	tmpDir, err := os.MkdirTemp("", "taskpool-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetJobsFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetJobsFile, err)
	}

	cli := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "jobs"),
		Pwd:     wd,
		GetMode: getter.ModeFile,
	}

	var fileName string

	if newURL, name := splitFileNameFromGetterURL(url); newURL != "" {
		req.Src = newURL
		req.Dst = filepath.Join(tmpDir, "g")
		req.GetMode = getter.ModeDir
		fileName = name
	}

	ctxlog.Debug(ctx, "fetching jobs file", "src", req.Src, "mode", req.GetMode)

	res, err := cli.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetJobsFile, err)
	}

	path := res.Dst
	if fileName != "" {
		path = filepath.Join(res.Dst, fileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrGetJobsFile, err)
	}

	return data, nil
}

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself.
// It will append any ref query parameter to the new URL if it exists.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref, fileName string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	if strings.Contains(parts[len(parts)-1], goGetterRefSeparator) {
		refSplit := strings.Split(parts[len(parts)-1], goGetterRefSeparator)
		if len(refSplit) > 1 {
			ref = strings.Join(refSplit[1:], "")
		}

		parts[len(parts)-1] = refSplit[0]
	}

	if filepath.Clean(parts[len(parts)-1]) == filepath.Dir(parts[len(parts)-1]) {
		return "", ""
	}

	fileName = filepath.Base(parts[len(parts)-1])
	parts[len(parts)-1] = filepath.Dir(parts[len(parts)-1])

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
