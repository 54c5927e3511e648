// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Command quasi is the quasi runtime CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/hcl/v2"
	"golang.org/x/term"

	"nickandperla.net/quasi/internal/errwrap"
	"nickandperla.net/quasi/pkg/quasi"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process: it returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, exit, err := parseArgs(args, stderr)
	if exit {
		return 0
	}
	if err != nil {
		var ee *ExitError
		if errors.As(err, &ee) {
			fmt.Fprintf(stderr, "Error: %s\n", ee.Message)
			return ee.Code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.logLevel, cfg.logFormat, stderr)
	con := &console{w: stdout}
	sources := sourceSet{}

	opts := append(cfg.options(), quasi.WithLogger(logger), quasi.WithOutput(con))
	runtime, err := quasi.New(opts...)
	if err != nil {
		var perr *quasi.PreludeError
		if errors.As(err, &perr) {
			sources[quasi.PreludeFile] = []byte(perr.Source)
		}
		report(stderr, err, sources)
		return 1
	}
	defer runtime.Close()
	logger.Debug("runtime ready", "db", cfg.dbPath, "persist_mode", cfg.persistMode.String())

	for _, v := range cfg.vars {
		name := "<var " + v.name + ">"
		sources[name] = []byte(v.expr)
		val, err := runtime.Expression(v.expr, name)
		if err != nil {
			report(stderr, err, sources)
			return 1
		}
		runtime.Define(v.name, val)
	}

	var filename string
	var src []byte
	switch {
	case cfg.evalStr != "":
		filename, src = "<eval>", []byte(cfg.evalStr)

	case cfg.file != "":
		if src, err = os.ReadFile(cfg.file); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		filename = cfg.file

	case isTerminal(stdin):
		return runREPL(runtime, stdin.(*os.File), con, stderr)

	default:
		// Piped input
		if src, err = io.ReadAll(stdin); err != nil {
			fmt.Fprintf(stderr, "Error reading stdin: %v\n", err)
			return 1
		}
		filename = "<stdin>"
	}

	sources[filename] = src
	result, err := runtime.EvalNamed(filename, string(src))
	if err != nil {
		report(stderr, err, sources)
		return 1
	}
	if result != "" {
		fmt.Fprintln(con, result)
	}
	return 0
}

// sourceSet maps filenames to their contents for diagnostic snippets.
type sourceSet map[string][]byte

// report writes err to w, as source diagnostics when it carries any.
func report(w io.Writer, err error, sources sourceSet) {
	diags := errwrap.Diagnostics(err)
	if len(diags) == 0 {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	files := make(map[string]*hcl.File, len(sources))
	for name, src := range sources {
		files[name] = &hcl.File{Bytes: src}
	}
	dw := hcl.NewDiagnosticTextWriter(w, files, width(w), false)
	if werr := dw.WriteDiagnostics(diags); werr != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// width returns the wrap width for diagnostics written to w.
func width(w io.Writer) uint {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return uint(cols)
		}
	}
	return 78
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
