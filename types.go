package main

import "strings"

// AbstractType is the engine-independent classification of a column, used
// to select aggregate and frequency logic. It is deliberately a closed
// enum so every switch over it can be checked for exhaustiveness.
type AbstractType int

const (
	TypeUnsupported AbstractType = iota
	TypeInteger
	TypeFloat
	TypeDecimal
	TypeString
	TypeText
	TypeBlob
	TypeEnum
	TypeInet
	TypeUUID
	TypeJSON
	TypeBoolean
	TypeArray
	TypeDate
	TypeDatetime
	TypeTime
	TypeTimestamp
)

var abstractTypeNames = map[AbstractType]string{
	TypeUnsupported: "unsupported",
	TypeInteger:     "integer",
	TypeFloat:       "float",
	TypeDecimal:     "decimal",
	TypeString:      "string",
	TypeText:        "text",
	TypeBlob:        "blob",
	TypeEnum:        "enum",
	TypeInet:        "inet",
	TypeUUID:        "uuid",
	TypeJSON:        "json",
	TypeBoolean:     "boolean",
	TypeArray:       "array",
	TypeDate:        "date",
	TypeDatetime:    "datetime",
	TypeTime:        "time",
	TypeTimestamp:   "timestamp",
}

func (t AbstractType) String() string {
	if s, ok := abstractTypeNames[t]; ok {
		return s
	}
	return "unsupported"
}

// MarshalText makes AbstractType render as its name in JSON reports.
func (t AbstractType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the name form back, so JSON reports round-trip.
func (t *AbstractType) UnmarshalText(b []byte) error {
	name := string(b)
	for k, n := range abstractTypeNames {
		if n == name {
			*t = k
			return nil
		}
	}
	*t = TypeUnsupported
	return nil
}

// driverTypeKinds maps the coarse symbols adapters report to abstract
// kinds. "string" is intentionally absent: it is too generic to trust
// and goes through the raw-type refinement below.
var driverTypeKinds = map[string]AbstractType{
	"integer":   TypeInteger,
	"float":     TypeFloat,
	"decimal":   TypeDecimal,
	"boolean":   TypeBoolean,
	"blob":      TypeBlob,
	"enum":      TypeEnum,
	"inet":      TypeInet,
	"uuid":      TypeUUID,
	"json":      TypeJSON,
	"array":     TypeArray,
	"date":      TypeDate,
	"datetime":  TypeDatetime,
	"time":      TypeTime,
	"timestamp": TypeTimestamp,
}

// normalizeColumnType turns an adapter-reported column description into an
// abstract kind. Rules, first match wins:
//
//  1. Raw-type overrides that beat a misleadingly generic driver type:
//     anything containing "json" is json, a bare "uuid" is uuid, and
//     "tsvector" is treated as non-groupable text.
//  2. A concrete driver type other than "string" is trusted as-is.
//  3. A "string" driver type is refined by the raw type: varchar/char
//     variants stay string, text variants become text, and anything else
//     is probed against the engine's enum catalog.
//  4. With no driver type at all, the raw string is classified directly.
//
// Unmatched types fall through as unsupported: the column is still
// null-counted but excluded from every other operation.
func normalizeColumnType(driverType, dbType string, enumTypes map[string]bool) AbstractType {
	raw := strings.ToLower(strings.TrimSpace(dbType))
	base := physicalTypeKey(raw)

	switch {
	case strings.Contains(raw, "json"):
		return TypeJSON
	case base == "uuid":
		return TypeUUID
	case base == "tsvector":
		return TypeText
	}

	if driverType != "" && driverType != "string" {
		if kind, ok := driverTypeKinds[driverType]; ok {
			return kind
		}
		return TypeUnsupported
	}

	if driverType == "string" {
		if kind, ok := stringRawKinds[base]; ok {
			return kind
		}
		if enumTypes[base] {
			return TypeEnum
		}
		return TypeString
	}

	return classifyRawType(raw, base, enumTypes)
}

// stringRawKinds refines a generic "string" driver type by its raw name.
var stringRawKinds = map[string]AbstractType{
	"character varying": TypeString,
	"varchar":           TypeString,
	"character":         TypeString,
	"char":              TypeString,
	"nvarchar":          TypeString,
	"nchar":             TypeString,
	"bpchar":            TypeString,
	"citext":            TypeString,
	"text":              TypeText,
	"tinytext":          TypeText,
	"mediumtext":        TypeText,
	"longtext":          TypeText,
	"clob":              TypeText,
}

// classifyRawType infers a kind from the raw type string alone, for
// engines whose driver reports nothing usable.
func classifyRawType(raw, base string, enumTypes map[string]bool) AbstractType {
	if strings.HasSuffix(base, "[]") {
		return TypeArray
	}

	switch base {
	case "smallint", "int", "integer", "bigint", "int2", "int4", "int8",
		"tinyint", "mediumint", "serial", "bigserial", "year":
		return TypeInteger
	case "real", "float", "float4", "float8", "double", "double precision":
		return TypeFloat
	case "numeric", "decimal":
		return TypeDecimal
	case "boolean", "bool":
		return TypeBoolean
	case "bytea", "blob", "binary", "varbinary", "tinyblob", "mediumblob", "longblob", "bit":
		return TypeBlob
	case "inet", "cidr", "macaddr":
		return TypeInet
	case "date":
		return TypeDate
	case "datetime":
		return TypeDatetime
	case "time", "time without time zone", "time with time zone", "timetz":
		return TypeTime
	case "timestamp", "timestamp without time zone", "timestamp with time zone", "timestamptz":
		return TypeTimestamp
	case "array":
		return TypeArray
	case "enum", "set":
		return TypeEnum
	}

	if kind, ok := stringRawKinds[base]; ok {
		return kind
	}
	if strings.HasPrefix(base, "enum") {
		return TypeEnum
	}
	if enumTypes[base] {
		return TypeEnum
	}
	return TypeUnsupported
}

// physicalTypeKey strips size and precision from a raw database type so
// same-typed columns land in one frequency batch: "varchar(255)" and
// "varchar(40)" both key as "varchar". UNION ALL requires type
// compatibility across branches, and the physical base type is the
// compatibility unit.
func physicalTypeKey(dbType string) string {
	key := strings.ToLower(strings.TrimSpace(dbType))
	if idx := strings.IndexByte(key, '('); idx >= 0 {
		rest := ""
		if end := strings.IndexByte(key[idx:], ')'); end >= 0 {
			rest = key[idx+end+1:]
		}
		key = strings.TrimSpace(key[:idx]) + rest
	}
	return key
}

// nonGroupableRaw are physical types that cannot appear in a GROUP BY at
// reasonable cost or at all.
var nonGroupableRaw = map[string]bool{
	"xml":      true,
	"hstore":   true,
	"tsvector": true,
}

// groupable reports whether a column may be used in GROUP BY frequency
// queries. JSON is excluded here and special-cased by the frequency
// engine, which groups it through a text cast.
func groupable(col ColumnSchema) bool {
	switch col.Type {
	case TypeText, TypeBlob, TypeArray, TypeJSON, TypeUnsupported:
		return false
	}
	return !nonGroupableRaw[physicalTypeKey(col.DBType)]
}

// orderable reports whether MIN/MAX projections make sense for a column.
func orderable(col ColumnSchema) bool {
	switch col.Type {
	case TypeBlob, TypeText, TypeArray, TypeUnsupported:
		return false
	}
	return !nonGroupableRaw[physicalTypeKey(col.DBType)]
}

// likelyKey flags a column that is probably a primary/foreign key or
// unique identifier so expensive aggregates (AVG, DISTINCT, frequency)
// can be skipped. Name-based matching is a documented approximation: a
// non-key column that happens to end in "_id" is skipped too, which is an
// accepted trade against full-table DISTINCT scans on real keys.
func likelyKey(name string, uniqueIndexed bool) bool {
	return uniqueIndexed || name == "id" || strings.HasSuffix(name, "_id")
}
