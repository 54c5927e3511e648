// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"nickandperla.net/quasi/internal/expr"
	"nickandperla.net/quasi/internal/scanner"
	"nickandperla.net/quasi/pkg/quasi"
)

const (
	promptMain = ">>> "
	promptMore = "... "
	replFile   = "<repl>"
)

// console is the runtime's output. The REPL points it at the line editor
// while the terminal is in raw mode.
type console struct {
	w io.Writer
}

func (c *console) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// lineReader is the part of a line editor the REPL needs.
type lineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

// basicReader reads lines from a plain reader, printing prompts to out.
type basicReader struct {
	r      *bufio.Reader
	out    io.Writer
	prompt string
}

func newBasicReader(r io.Reader, out io.Writer) *basicReader {
	return &basicReader{r: bufio.NewReader(r), out: out, prompt: promptMain}
}

func (b *basicReader) SetPrompt(prompt string) {
	b.prompt = prompt
}

func (b *basicReader) ReadLine() (string, error) {
	fmt.Fprint(b.out, b.prompt)
	line, err := b.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		fmt.Fprintln(b.out)
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printBanner(w io.Writer) {
	fmt.Fprint(w, `quasi REPL (Ctrl+D to exit)

A quote block left open continues onto the next line. Elsewhere, end a
line with \ to continue it. Commands:
  :bindings   list bound names
  :help       show this text
  :persist-mode [MODE]
              show or set the persist mode (on_demand, always, never)
  :quit       leave the REPL

`)
}

// runREPL runs an interactive session on a terminal.
func runREPL(runtime *quasi.Runtime, in *os.File, con *console, stderr io.Writer) int {
	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to set raw mode: %v\n", err)
		return repl(runtime, newBasicReader(in, con), con)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, con.w}, promptMain)

	prev := con.w
	con.w = t
	defer func() { con.w = prev }()

	return repl(runtime, t, con)
}

// repl reads statements until end of input. Errors are reported and the
// session continues.
func repl(runtime *quasi.Runtime, lines lineReader, out io.Writer) int {
	printBanner(out)

	var multiline strings.Builder
	for {
		line, err := lines.ReadLine()
		if err == io.EOF {
			return 0
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return 1
		}

		if inQuote(multiline.String() + line) {
			// a trailing \ here is an escape, kept as typed
			multiline.WriteString(line)
			multiline.WriteString("\n")
			lines.SetPrompt(promptMore)
			continue
		}
		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			lines.SetPrompt(promptMore)
			continue
		}
		multiline.WriteString(line)
		input := multiline.String()
		multiline.Reset()
		lines.SetPrompt(promptMain)

		switch strings.TrimSpace(input) {
		case "":
			continue
		case ":quit", ":q":
			return 0
		case ":help":
			printBanner(out)
			continue
		case ":bindings":
			for _, name := range runtime.Bindings() {
				fmt.Fprintln(out, name)
			}
			continue
		}
		if arg, ok := strings.CutPrefix(strings.TrimSpace(input), ":persist-mode"); ok {
			persistModeCommand(runtime, strings.TrimSpace(arg), out)
			continue
		}

		result, err := runtime.EvalNamed(replFile, input)
		if err != nil {
			report(out, err, sourceSet{replFile: []byte(input)})
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}

func persistModeCommand(runtime *quasi.Runtime, arg string, out io.Writer) {
	if arg == "" {
		fmt.Fprintln(out, runtime.PersistMode())
		return
	}
	mode, ok := quasi.ParsePersistMode(arg)
	if !ok {
		fmt.Fprintf(out, "Error: unknown persist mode: %s (use on_demand, always, or never)\n", arg)
		return
	}
	runtime.SetPersistMode(mode)
	fmt.Fprintln(out, mode)
}

// inQuote reports whether input stops inside an open quote block.
func inQuote(input string) bool {
	_, err := scanner.NewFromString(input, replFile, expr.NewTable()).All()
	var serr *scanner.Error
	return errors.As(err, &serr) && serr.UnterminatedQuote()
}
