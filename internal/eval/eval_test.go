// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"errors"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"nickandperla.net/quasi/internal/errwrap"
	"nickandperla.net/quasi/internal/store"
	"nickandperla.net/quasi/internal/unquote"
	"nickandperla.net/quasi/internal/value"
)

func newCapture(opts ...Option) (*Evaluator, *strings.Builder) {
	var output strings.Builder
	opts = append([]Option{WithOutputWriter(func(text string) error {
		output.WriteString(text)
		return nil
	})}, opts...)
	return New(opts...), &output
}

func mustEval(t *testing.T, e *Evaluator, src string) string {
	t.Helper()
	result, err := e.Eval(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestPrint(t *testing.T) {
	e, output := newCapture()

	result := mustEval(t, e, `print("Hello", 42);`)
	// print returns nothing as a statement; output went through the writer
	if result != "" {
		t.Errorf("expected empty result, got '%s'", result)
	}
	if output.String() != "Hello 42\n" {
		t.Errorf("expected output 'Hello 42\\n', got '%s'", output.String())
	}
}

func TestExpressionStatements(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`let x = 1 + 2; x * 2;`, "6"},
		{`1; "a";`, "1\n\"a\""},
		{`-3;`, "- 3"},
		{`upper("abc")`, `"ABC"`},
		{`[for s in ["a", "b"]: upper(s)];`, `["A", "B"]`},
		{`let cfg = { port = 80 }; cfg;`, "{ port = 80 }"},
		{`;;`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			got := mustEval(t, New(), tc.src)
			if got != tc.want {
				t.Errorf("expected '%s', got '%s'", tc.want, got)
			}
		})
	}
}

func TestQuoteSubstitution(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "markers",
			src:  `let name = "world"; quote { greet($name, $(upper(name))) }`,
			want: `greet ("world", "WORLD")`,
		},
		{
			name: "bound quote spliced",
			src:  `let n = 2; let body = quote { a + $n }; quote { fn() { $body } };`,
			want: "fn () { a + 2 }",
		},
		{
			name: "nested quote",
			src:  `let v = 1; quote { outer quote { inner $v } }`,
			want: "outer quote { inner 1 }",
		},
		{
			name: "escaped dollar",
			src:  `quote { cost \$5 }`,
			want: "cost $5",
		},
		{
			name: "escaped dollar before a name",
			src:  `quote { cost \$x }`,
			want: "cost $x",
		},
		{
			name: "object value",
			src:  `let cfg = { port = 80, "a b" = true }; quote { $cfg }`,
			want: `{ "a b" = true, port = 80 }`,
		},
		{
			name: "empty list",
			src:  `let xs = []; quote { a $xs b }`,
			want: "a [] b",
		},
		{
			name: "source of quote",
			src:  `let q = quote { a.b }; source(q);`,
			want: `"a.b"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mustEval(t, New(), tc.src)
			if got != tc.want {
				t.Errorf("expected '%s', got '%s'", tc.want, got)
			}
		})
	}
}

func TestLetQuoteBindsQuotedValue(t *testing.T) {
	e := New()
	mustEval(t, e, `let x = 3; let q = quote { $x };`)

	v, ok := e.Namespace().Get("q")
	if !ok {
		t.Fatal("expected q to be bound")
	}
	ts, ok := value.AsQuoted(v)
	if !ok {
		t.Fatalf("expected a quoted value, got %s", v.Type().FriendlyName())
	}
	if ts.String() != "3" {
		t.Errorf("expected substituted body '3', got '%s'", ts.String())
	}
}

func TestEscapeError(t *testing.T) {
	_, err := New().Eval(`quote { \x }`)
	var eerr *unquote.UnexpectedEscapeError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected UnexpectedEscapeError, got %v", err)
	}
	if eerr.Token == nil || eerr.Token.Value != "x" {
		t.Errorf("expected the offending token to be x, got %v", eerr.Token)
	}
	if eerr.Range.Start.Column != 10 {
		t.Errorf("expected column 10, got %d", eerr.Range.Start.Column)
	}
}

func TestUnboundMarker(t *testing.T) {
	_, err := New().Eval(`quote { $missing }`)
	if err == nil {
		t.Fatal("expected an error")
	}
	diags := errwrap.Diagnostics(err)
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics, got %v", err)
	}
	if diags[0].Subject == nil || diags[0].Subject.Start.Column != 10 {
		t.Errorf("expected diagnostic at the marker expression, got %v", diags[0].Subject)
	}
}

func TestFailFast(t *testing.T) {
	e, output := newCapture()
	result, err := e.Eval(`quote { $(print("a")) $(nope) $(print("b")) }`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if result != "" {
		t.Errorf("expected no result, got '%s'", result)
	}
	if output.String() != "a\n" {
		t.Errorf("expected only the first marker to run, got output '%s'", output.String())
	}
}

func TestConversionError(t *testing.T) {
	_, err := New().Eval(`let n = null; quote { $n }`)
	var cerr *value.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if cerr.Reason != "null has no literal form" {
		t.Errorf("unexpected reason '%s'", cerr.Reason)
	}
}

func TestMaxDepth(t *testing.T) {
	src := `quote { quote { quote { x } } }`
	if _, err := New(WithMaxDepth(2)).Eval(src); err != nil {
		t.Fatalf("unexpected error at depth 2: %v", err)
	}
	_, err := New(WithMaxDepth(1)).Eval(src)
	var derr *unquote.DepthError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DepthError, got %v", err)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{`let = 3;`, "expected a name after let"},
		{`let x 3;`, `expected "=" after let x`},
		{`let x = ;`, "expected an expression after let x ="},
		{`foo(quote { a });`, "a quote block must stand alone or be bound with let"},
		{`persist 3;`, "expected a name after persist"},
		{`load x y;`, `expected ";" at the end of the statement`},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			_, err := New().Eval(tc.src)
			var serr *SyntaxError
			if !errors.As(err, &serr) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
			if serr.Msg != tc.msg {
				t.Errorf("expected '%s', got '%s'", tc.msg, serr.Msg)
			}
		})
	}
}

func TestWithVariables(t *testing.T) {
	e := New(WithVariables(map[string]cty.Value{"n": cty.NumberIntVal(3)}))
	if got := mustEval(t, e, `quote { $n }`); got != "3" {
		t.Errorf("expected '3', got '%s'", got)
	}
}

func TestEvalExpression(t *testing.T) {
	e := New()
	e.Define("base", cty.NumberIntVal(40))
	v, err := e.EvalExpression("base + 2", "<var>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.RawEquals(cty.NumberIntVal(42)) {
		t.Errorf("expected 42, got %#v", v)
	}
}

func TestPersistLoad(t *testing.T) {
	s := store.NewMemory()
	e := New(WithStore(s))
	mustEval(t, e, `let x = "v"; let q = quote { a $x }; persist x; persist q;`)

	got, err := s.Get("x")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.RawEquals(cty.StringVal("v")) {
		t.Errorf("expected \"v\" in store, got %#v", got)
	}

	e2 := New(WithStore(s))
	if got := mustEval(t, e2, `load x; load q; load nothing; x;`); got != `"v"` {
		t.Errorf("expected '\"v\"', got '%s'", got)
	}
	if got := mustEval(t, e2, `quote { $q }`); got != `a "v"` {
		t.Errorf("expected 'a \"v\"', got '%s'", got)
	}
}

func TestPersistUnbound(t *testing.T) {
	_, err := New(WithStore(store.NewMemory())).Eval(`persist nope;`)
	var nerr *NameError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NameError, got %v", err)
	}
	if nerr.Name != "nope" {
		t.Errorf("expected name 'nope', got '%s'", nerr.Name)
	}
}

func TestPersistAlways(t *testing.T) {
	s := store.NewMemory()
	mustEval(t, New(WithStore(s), WithPersistMode(PersistAlways)), `let x = 5;`)

	got, _ := s.Get("x")
	if !got.RawEquals(cty.NumberIntVal(5)) {
		t.Fatalf("expected x to be persisted on let, got %#v", got)
	}

	e2 := New(WithStore(s), WithPersistMode(PersistAlways))
	if got := mustEval(t, e2, `x + 1;`); got != "6" {
		t.Errorf("expected auto-load to give '6', got '%s'", got)
	}
	if got := mustEval(t, e2, `quote { $x }`); got != "5" {
		t.Errorf("expected '5', got '%s'", got)
	}
}

func TestPersistNever(t *testing.T) {
	s := store.NewMemory()
	mustEval(t, New(WithStore(s), WithPersistMode(PersistNever)), `let x = 1; persist x;`)

	got, _ := s.Get("x")
	if got != cty.NilVal {
		t.Errorf("expected nothing persisted in NEVER mode, got %#v", got)
	}
}

func TestForget(t *testing.T) {
	s := store.NewMemory()
	e := New(WithStore(s))
	mustEval(t, e, `let x = 1; persist x; forget x;`)

	if e.Namespace().Has("x") {
		t.Error("expected x to be unbound")
	}
	if got, _ := s.Get("x"); got != cty.NilVal {
		t.Errorf("expected x to be deleted from the store, got %#v", got)
	}
	if _, err := e.Eval(`x;`); err == nil {
		t.Error("expected an error evaluating a forgotten name")
	}
}

func TestParsePersistMode(t *testing.T) {
	for _, mode := range []PersistMode{PersistOnDemand, PersistAlways, PersistNever} {
		got, ok := ParsePersistMode(strings.ToLower(mode.String()))
		if !ok || got != mode {
			t.Errorf("ParsePersistMode(%q) = %v, %v", mode.String(), got, ok)
		}
	}
	if _, ok := ParsePersistMode("sometimes"); ok {
		t.Error("expected 'sometimes' to be rejected")
	}
}

func TestEvalReader(t *testing.T) {
	got, err := New().EvalReader(strings.NewReader("let a = 2;\nquote { $a }\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2" {
		t.Errorf("expected '2', got '%s'", got)
	}
}
