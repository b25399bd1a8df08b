package main

import "testing"

func TestPGIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", "users"},
		{"user", `"user"`},
		{"order", `"order"`},
		{"UserName", `"UserName"`},
		{"user name", `"user name"`},
		{"2fa_codes", `"2fa_codes"`},
		{"created_at", "created_at"},
		{"_internal", "_internal"},
	}
	for _, tt := range tests {
		if got := pgIdent(tt.in); got != tt.want {
			t.Errorf("pgIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
