// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// quasi-check: Syntax checker for .qs files.
//
// Validates that every file scans (matched quote blocks, terminated strings
// and unquote expressions), that every \ in a quote escapes a $, and that
// every unquoted expression parses.
// Nothing is evaluated.
//
// Usage:
//
//	quasi-check FILE [FILE...]
//	quasi-check --dir DIR
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nickandperla.net/quasi/internal/expr"
	"nickandperla.net/quasi/internal/scanner"
	"nickandperla.net/quasi/internal/token"
)

// expectErrorDirective marks a file whose evaluation is expected to fail.
const expectErrorDirective = "// EXPECTED: Error"

// checkResult holds the outcome of checking a single file.
type checkResult struct {
	path         string
	errors       []string
	expectsError bool
}

// checkFile scans a .qs file and parses its unquoted expressions.
func checkFile(path string) checkResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return checkResult{
			path:   path,
			errors: []string{fmt.Sprintf("read error: %v", err)},
		}
	}
	return checkSource(path, string(content))
}

func checkSource(path, src string) checkResult {
	result := checkResult{path: path}
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), expectErrorDirective) {
			result.expectsError = true
			break
		}
	}

	table := expr.NewTable()
	toks, err := scanner.NewFromString(src, path, table).All()
	if err != nil {
		var serr *scanner.Error
		if errors.As(err, &serr) {
			result.errors = append(result.errors, fmt.Sprintf("line %d:%d: %s",
				serr.Range.Start.Line, serr.Range.Start.Column, serr.Msg))
		} else {
			result.errors = append(result.errors, err.Error())
		}
		return result
	}
	result.errors = append(result.errors, checkEscapes(toks, false)...)

	for id := 0; id < table.Len(); id++ {
		_, diags := table.Parse(token.ExprID(id))
		for _, d := range diags {
			if d.Subject == nil {
				result.errors = append(result.errors, d.Summary)
				continue
			}
			result.errors = append(result.errors, fmt.Sprintf("line %d:%d: %s",
				d.Subject.Start.Line, d.Subject.Start.Column, d.Summary))
		}
	}
	return result
}

// checkEscapes reports every \ inside a quote block that is not followed
// by $.
func checkEscapes(toks token.Tokens, quoted bool) []string {
	var errs []string
	for i, t := range toks {
		switch t.Token.Kind {
		case token.QUOTE:
			errs = append(errs, checkEscapes(t.Token.Quoted, true)...)
		case token.BACKSLASH:
			if !quoted {
				continue
			}
			if i+1 < len(toks) && toks[i+1].Token.Kind == token.DOLLAR {
				continue
			}
			errs = append(errs, fmt.Sprintf("line %d:%d: expected $ after \\ in quote",
				t.Range.Start.Line, t.Range.Start.Column))
		}
	}
	return errs
}

// findSourceFiles recursively finds all .qs files under dir.
func findSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".qs") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: quasi-check [--dir DIR] FILE [FILE...]")
		return 1
	}

	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--dir" {
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "Error: --dir requires an argument")
				return 1
			}
			i++
			found, err := findSourceFiles(args[i])
			if err != nil {
				fmt.Fprintf(stderr, "Error scanning directory %s: %v\n", args[i], err)
				return 1
			}
			files = append(files, found...)
		} else {
			files = append(files, args[i])
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(stderr, "No .qs files found")
		return 1
	}

	passed := 0
	failed := 0
	expectedErr := 0

	for _, f := range files {
		result := checkFile(f)
		hasErrors := len(result.errors) > 0

		if result.expectsError {
			// Evaluation errors such as unbound names pass the syntax check.
			expectedErr++
			if hasErrors {
				fmt.Fprintf(stdout, "OK   %s (expected error, found %d)\n", f, len(result.errors))
			} else {
				fmt.Fprintf(stdout, "OK   %s (expected error, syntax accepted)\n", f)
			}
		} else if hasErrors {
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n", f)
			for _, e := range result.errors {
				fmt.Fprintf(stdout, "     %s\n", e)
			}
		} else {
			passed++
			fmt.Fprintf(stdout, "OK   %s\n", f)
		}
	}

	fmt.Fprintf(stdout, "\n--- Summary ---\n")
	fmt.Fprintf(stdout, "Passed:          %d\n", passed)
	fmt.Fprintf(stdout, "Expected errors: %d\n", expectedErr)
	fmt.Fprintf(stdout, "Failed:          %d\n", failed)
	fmt.Fprintf(stdout, "Total:           %d\n", len(files))

	if failed > 0 {
		return 1
	}
	return 0
}
