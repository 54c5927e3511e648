// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"nickandperla.net/quasi/internal/token"
	"nickandperla.net/quasi/internal/value"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "quasi-test.db")
}

func quotedBody() token.Tokens {
	rng := hcl.Range{
		Filename: "lib.qs",
		Start:    hcl.Pos{Line: 2, Column: 9, Byte: 20},
		End:      hcl.Pos{Line: 2, Column: 12, Byte: 23},
	}
	return token.Tokens{
		token.At(token.Ident("add"), rng),
		token.At(token.Punct("("), rng),
		token.At(token.String("a\"b"), rng),
		token.At(token.Punct(")"), rng),
		token.At(token.Quote(token.Tokens{token.At(token.Float("1.5"), rng)}), rng),
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	if err := s.Put("test", cty.StringVal("hello")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get("test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.RawEquals(cty.StringVal("hello")) {
		t.Errorf("expected \"hello\", got %#v", got)
	}

	if err := s.Delete("test"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err = s.Get("test")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if got != cty.NilVal {
		t.Errorf("expected NilVal after delete, got %#v", got)
	}
}

func TestMemoryRejectsUnstorable(t *testing.T) {
	s := NewMemory()
	if err := s.Put("u", cty.UnknownVal(cty.String)); err == nil {
		t.Errorf("expected error storing an unknown value")
	}
	if err := s.Put("n", cty.TupleVal([]cty.Value{value.Quoted(nil)})); err == nil {
		t.Errorf("expected error storing a nested quoted value")
	}
}

func TestSQLiteStore(t *testing.T) {
	path := tempDB(t)

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}

	obj := cty.ObjectVal(map[string]cty.Value{
		"name": cty.StringVal("world"),
		"tags": cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		"n":    cty.NumberFloatVal(2.5),
	})
	if err := s.Put("obj", obj); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put("body", value.Quoted(quotedBody())); err != nil {
		t.Fatalf("Put quoted failed: %v", err)
	}

	// Close and reopen to verify persistence
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("obj")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if !got.RawEquals(obj) {
		t.Errorf("expected %#v after reopen, got %#v", obj, got)
	}

	got, err = s2.Get("body")
	if err != nil {
		t.Fatalf("Get quoted failed: %v", err)
	}
	ts, ok := value.AsQuoted(got)
	if !ok {
		t.Fatalf("expected a quoted value, got %s", got.Type().FriendlyName())
	}
	if !ts.Equal(quotedBody()) {
		t.Errorf("quoted tokens changed: got %s", ts)
	}

	missing, err := s2.Get("missing")
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if missing != cty.NilVal {
		t.Errorf("expected NilVal for missing name, got %#v", missing)
	}
}

func TestSQLiteOverwriteAndDelete(t *testing.T) {
	s, err := NewSQLite(tempDB(t))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	s.Put("X", cty.NumberIntVal(1))
	s.Put("X", cty.StringVal("second"))
	got, _ := s.Get("X")
	if !got.RawEquals(cty.StringVal("second")) {
		t.Errorf("expected overwrite to change type and value, got %#v", got)
	}

	if err := s.Delete("X"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = s.Get("X")
	if got != cty.NilVal {
		t.Errorf("expected NilVal after delete, got %#v", got)
	}
}

func TestSQLiteMetadata(t *testing.T) {
	s, err := NewSQLite(tempDB(t))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	v, err := s.GetMetadata("schema_version")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("expected schema version %s, got %q", SchemaVersion, v)
	}

	if err := s.SetMetadata("prelude", "loaded"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	v, _ = s.GetMetadata("prelude")
	if v != "loaded" {
		t.Errorf("expected 'loaded', got %q", v)
	}
}

func TestSQLiteUnsupportedSchema(t *testing.T) {
	path := tempDB(t)

	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	_, err = db.Exec(`
		CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO metadata (key, value) VALUES ('schema_version', '99');
	`)
	db.Close()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := NewSQLite(path); err == nil {
		t.Errorf("expected error opening schema version 99")
	}
}

func TestStoresImplementMetadataStore(t *testing.T) {
	var _ MetadataStore = NewMemory()
	var _ MetadataStore = (*SQLite)(nil)
}
