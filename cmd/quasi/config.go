// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/quasi/internal/token"
	"nickandperla.net/quasi/pkg/quasi"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// config is the validated command line.
type config struct {
	evalStr     string
	file        string
	dbPath      string
	persistMode quasi.PersistMode
	maxDepth    int
	vars        []variable
	logLevel    string
	logFormat   string
	noPrelude   bool
}

// variable is one -var name=expr flag.
type variable struct {
	name string
	expr string
}

// varFlags collects repeated -var flags.
type varFlags []variable

func (v *varFlags) String() string {
	parts := make([]string, 0, len(*v))
	for _, x := range *v {
		parts = append(parts, x.name+"="+x.expr)
	}
	return strings.Join(parts, ",")
}

func (v *varFlags) Set(s string) error {
	name, expr, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || strings.TrimSpace(expr) == "" {
		return fmt.Errorf("expected name=expression, got %q", s)
	}
	if !token.ValidIdent(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	*v = append(*v, variable{name: name, expr: expr})
	return nil
}

// parseArgs processes command-line arguments. It returns the config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func parseArgs(args []string, output io.Writer) (*config, bool, error) {
	flagSet := flag.NewFlagSet("quasi", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `quasi - compile-time quasiquotation runtime.

Usage:
  quasi [options]              REPL on a terminal, otherwise reads stdin
  quasi [options] -e SOURCE
  quasi [options] -f FILE

Options:
`)
		flagSet.PrintDefaults()
	}

	var vars varFlags
	evalStr := flagSet.String("e", "", "Evaluate source string")
	file := flagSet.String("f", "", "Evaluate source file")
	dbPath := flagSet.String("db", "quasi.db", "SQLite database path (empty for memory only)")
	persistMode := flagSet.String("persist-mode", "on_demand", "Persistence mode: on_demand, always, or never")
	maxDepth := flagSet.Int("max-depth", quasi.DefaultMaxDepth, "Maximum quote nesting depth (0 for no limit)")
	logLevel := flagSet.String("log-level", "warn", "Logging level: debug, info, warn, or error")
	logFormat := flagSet.String("log-format", "text", "Log output format: text or json")
	noPrelude := flagSet.Bool("no-prelude", false, "Do not load the prelude")
	flagSet.Var(&vars, "var", "Bind name=expression before evaluation (repeatable)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", flagSet.Arg(0))}
	}

	cfg := &config{
		evalStr:   *evalStr,
		file:      *file,
		dbPath:    *dbPath,
		maxDepth:  *maxDepth,
		vars:      vars,
		logLevel:  strings.ToLower(*logLevel),
		logFormat: strings.ToLower(*logFormat),
		noPrelude: *noPrelude,
	}
	if err := cfg.validate(*persistMode); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}

func (c *config) validate(persistMode string) error {
	if c.evalStr != "" && c.file != "" {
		return errors.New("-e and -f cannot be used together")
	}

	mode, ok := quasi.ParsePersistMode(persistMode)
	if !ok {
		return fmt.Errorf("unknown persist mode: %s (use on_demand, always, or never)", persistMode)
	}
	c.persistMode = mode

	if c.logFormat != "text" && c.logFormat != "json" {
		return errors.New("invalid log-format: must be 'text' or 'json'")
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return nil
}

// options translates the config into runtime options.
func (c *config) options() []quasi.Option {
	var opts []quasi.Option
	if c.dbPath != "" {
		opts = append(opts, quasi.WithSQLiteStore(c.dbPath))
	} else {
		opts = append(opts, quasi.WithMemoryStore())
	}
	opts = append(opts,
		quasi.WithPersistMode(c.persistMode),
		quasi.WithMaxDepth(c.maxDepth),
	)
	if c.noPrelude {
		opts = append(opts, quasi.WithNoPrelude())
	}
	return opts
}
