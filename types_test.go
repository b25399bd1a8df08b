package main

import "testing"

func TestNormalizeColumnType(t *testing.T) {
	enums := map[string]bool{"mood": true}

	tests := []struct {
		driverType string
		dbType     string
		want       AbstractType
	}{
		// Concrete driver types are trusted.
		{"integer", "bigint", TypeInteger},
		{"float", "double precision", TypeFloat},
		{"decimal", "numeric(10,2)", TypeDecimal},
		{"boolean", "boolean", TypeBoolean},
		{"date", "date", TypeDate},
		{"blob", "bytea", TypeBlob},
		{"array", "integer[]", TypeArray},

		// Raw-type overrides beat the driver type.
		{"string", "json", TypeJSON},
		{"string", "jsonb", TypeJSON},
		{"string", "uuid", TypeUUID},
		{"string", "tsvector", TypeText},
		{"integer", "json", TypeJSON},

		// Generic "string" refined by raw type.
		{"string", "character varying(255)", TypeString},
		{"string", "varchar(40)", TypeString},
		{"string", "text", TypeText},
		{"string", "longtext", TypeText},

		// Enum catalog probe for unrecognized string raw types.
		{"string", "mood", TypeEnum},
		{"string", "unknown_custom", TypeString},

		// Absent driver type infers from the raw string.
		{"", "bigint", TypeInteger},
		{"", "tinyint(1)", TypeInteger},
		{"", "numeric(20)", TypeDecimal},
		{"", "character varying(10)", TypeString},
		{"", "timestamp with time zone", TypeTimestamp},
		{"", "time without time zone", TypeTime},
		{"", "enum('a','b')", TypeEnum},
		{"", "text[]", TypeArray},
		{"", "inet", TypeInet},
		{"", "mood", TypeEnum},
		{"", "geometry", TypeUnsupported},

		// Unknown driver types fall through as unsupported.
		{"geometry", "geometry", TypeUnsupported},
	}
	for _, tt := range tests {
		got := normalizeColumnType(tt.driverType, tt.dbType, enums)
		if got != tt.want {
			t.Errorf("normalizeColumnType(%q, %q) = %s, want %s", tt.driverType, tt.dbType, got, tt.want)
		}
	}
}

func TestPhysicalTypeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"varchar(255)", "varchar"},
		{"character varying(255)", "character varying"},
		{"numeric(10,2)", "numeric"},
		{"text", "text"},
		{"TIMESTAMP", "timestamp"},
		{"numeric(10,2)[]", "numeric[]"},
		{" varchar(40) ", "varchar"},
	}
	for _, tt := range tests {
		if got := physicalTypeKey(tt.in); got != tt.want {
			t.Errorf("physicalTypeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupable(t *testing.T) {
	tests := []struct {
		col  ColumnSchema
		want bool
	}{
		{ColumnSchema{Name: "name", Type: TypeString, DBType: "varchar(255)"}, true},
		{ColumnSchema{Name: "mood", Type: TypeEnum, DBType: "mood"}, true},
		{ColumnSchema{Name: "active", Type: TypeBoolean, DBType: "boolean"}, true},
		{ColumnSchema{Name: "body", Type: TypeText, DBType: "text"}, false},
		{ColumnSchema{Name: "payload", Type: TypeBlob, DBType: "bytea"}, false},
		{ColumnSchema{Name: "tags", Type: TypeArray, DBType: "text[]"}, false},
		{ColumnSchema{Name: "doc", Type: TypeJSON, DBType: "jsonb"}, false},
		{ColumnSchema{Name: "attrs", Type: TypeString, DBType: "hstore"}, false},
		{ColumnSchema{Name: "search", Type: TypeString, DBType: "tsvector"}, false},
	}
	for _, tt := range tests {
		if got := groupable(tt.col); got != tt.want {
			t.Errorf("groupable(%s %s) = %t, want %t", tt.col.Name, tt.col.DBType, got, tt.want)
		}
	}
}

func TestLikelyKey(t *testing.T) {
	tests := []struct {
		name   string
		unique bool
		want   bool
	}{
		{"id", false, true},
		{"user_id", false, true},
		{"email", true, true},
		{"email", false, false},
		{"identity", false, false}, // suffix match, not substring
		{"grid", false, false},
	}
	for _, tt := range tests {
		if got := likelyKey(tt.name, tt.unique); got != tt.want {
			t.Errorf("likelyKey(%q, %t) = %t, want %t", tt.name, tt.unique, got, tt.want)
		}
	}
}
