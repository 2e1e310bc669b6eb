// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package joblist turns the job sources accepted on the command line into an
// ordered list of command lines.
//
// Three sources are understood: a literal list separated by ';', a plain
// text jobs file with one command per line, and a YAML batch file which also
// carries batch settings. Files are read from the local filesystem through
// FsFactory, or fetched with go-getter when given as a remote source.
package joblist
