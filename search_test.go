package main

import (
	"strings"
	"testing"
)

func TestSearchPredicate(t *testing.T) {
	ad := &postgresAdapter{}

	tests := []struct {
		col      ColumnSchema
		value    string
		wantCond string
		wantOK   bool
	}{
		{ColumnSchema{Name: "age", Type: TypeInteger}, "42", "age = $1", true},
		{ColumnSchema{Name: "age", Type: TypeInteger}, "Freund", "", false},
		{ColumnSchema{Name: "score", Type: TypeFloat}, "3.5", "score = $1", true},
		{ColumnSchema{Name: "score", Type: TypeDecimal}, "abc", "", false},
		{ColumnSchema{Name: "active", Type: TypeBoolean}, "yes", "active = $1", true},
		{ColumnSchema{Name: "active", Type: TypeBoolean}, "maybe", "", false},
		{ColumnSchema{Name: "created_at", Type: TypeTimestamp}, "2024-01-01", "", false},
		{ColumnSchema{Name: "name", Type: TypeString}, "Freund", "name LIKE $1", true},
		{ColumnSchema{Name: "bio", Type: TypeText}, "Freund", "bio LIKE $1", true},
		{ColumnSchema{Name: "meta", Type: TypeJSON}, "Freund", "CAST(meta AS text) LIKE $1", true},
		{ColumnSchema{Name: "ref", Type: TypeUUID}, "9f3a", "CAST(ref AS text) LIKE $1", true},
		{ColumnSchema{Name: "payload", Type: TypeBlob}, "Freund", "", false},
		{ColumnSchema{Name: "shape", Type: TypeUnsupported}, "Freund", "", false},
	}
	for _, tt := range tests {
		cond, args, ok := searchPredicate(ad, tt.col, tt.value)
		if ok != tt.wantOK {
			t.Errorf("searchPredicate(%s, %q) ok = %t, want %t", tt.col.Name, tt.value, ok, tt.wantOK)
			continue
		}
		if cond != tt.wantCond {
			t.Errorf("searchPredicate(%s, %q) cond = %q, want %q", tt.col.Name, tt.value, cond, tt.wantCond)
		}
		if ok && len(args) != 1 {
			t.Errorf("searchPredicate(%s, %q) args = %v, want one", tt.col.Name, tt.value, args)
		}
	}
}

func TestSearchPredicate_SubstringArg(t *testing.T) {
	ad := &sqliteAdapter{}
	col := ColumnSchema{Name: "name", Type: TypeString}

	_, args, ok := searchPredicate(ad, col, "Freund")
	if !ok {
		t.Fatal("searchPredicate not ok for string column")
	}
	if s, _ := args[0].(string); s != "%Freund%" {
		t.Errorf("substring arg = %v, want %%Freund%%", args[0])
	}
}

func TestParseBoolToken(t *testing.T) {
	truthy := []string{"true", "t", "1", "yes", "Y", "ON"}
	for _, v := range truthy {
		b, ok := parseBoolToken(v)
		if !ok || !b {
			t.Errorf("parseBoolToken(%q) = %t,%t, want true,true", v, b, ok)
		}
	}
	falsy := []string{"false", "F", "0", "no", "n", "off"}
	for _, v := range falsy {
		b, ok := parseBoolToken(v)
		if !ok || b {
			t.Errorf("parseBoolToken(%q) = %t,%t, want false,true", v, b, ok)
		}
	}
	if _, ok := parseBoolToken("maybe"); ok {
		t.Error("parseBoolToken accepted 'maybe'")
	}
}

func TestSearchPredicate_Placeholders(t *testing.T) {
	col := ColumnSchema{Name: "name", Type: TypeString}
	cond, _, _ := searchPredicate(&mysqlAdapter{}, col, "x")
	if !strings.Contains(cond, "?") {
		t.Errorf("mysql predicate uses wrong placeholder: %s", cond)
	}
}
