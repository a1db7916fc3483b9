package sqlmodel

import "fmt"

// Kind enumerates the physical storage kinds the model compiler maps
// logical field types onto (spec §4.1 "default physical type mapping").
type Kind uint8

const (
	KindBoolean Kind = iota
	KindInt
	KindFloat
	KindNumeric
	KindText
	KindVarchar
	KindUUID
	KindTimestamp
	KindTimestampTZ
	KindDate
	KindTime
	KindJSON
	KindJSONB
	KindBytea
	KindEnum
	KindVector
	KindArray
)

var kindNames = map[Kind]string{
	KindBoolean:     "boolean",
	KindInt:         "int",
	KindFloat:       "float",
	KindNumeric:     "numeric",
	KindText:        "text",
	KindVarchar:     "varchar",
	KindUUID:        "uuid",
	KindTimestamp:   "timestamp",
	KindTimestampTZ: "timestamptz",
	KindDate:        "date",
	KindTime:        "time",
	KindJSON:        "json",
	KindJSONB:       "jsonb",
	KindBytea:       "bytea",
	KindEnum:        "enum",
	KindVector:      "vector",
	KindArray:       "array",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// PhysicalType is the physical column type the SQL abstract model assigns
// a field. It is comparable with == for the common case (no Elem); use
// Equal when array element types may themselves carry nested state.
type PhysicalType struct {
	Kind Kind

	// Bits is the storage width for KindInt/KindFloat (16, 32, 64).
	Bits int

	// Precision/Scale apply to KindNumeric.
	Precision int
	Scale     int

	// Length applies to KindVarchar and KindVector (embedding dimension).
	Length int

	// EnumName names the backing Postgres enum type for KindEnum.
	EnumName string

	// Elem is the element type for KindArray.
	Elem *PhysicalType
}

// Equal reports whether two physical types describe the same storage,
// recursing through array element types.
func (t PhysicalType) Equal(o PhysicalType) bool {
	if t.Kind != o.Kind || t.Bits != o.Bits || t.Precision != o.Precision ||
		t.Scale != o.Scale || t.Length != o.Length || t.EnumName != o.EnumName {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

// String renders the type the way it should appear in diagnostics.
func (t PhysicalType) String() string { return t.SQL() }

// SQL renders the Postgres type name for DDL purposes.
func (t PhysicalType) SQL() string {
	switch t.Kind {
	case KindBoolean:
		return "boolean"
	case KindInt:
		switch t.Bits {
		case 16:
			return "smallint"
		case 64:
			return "bigint"
		default:
			return "integer"
		}
	case KindFloat:
		if t.Bits == 32 {
			return "real"
		}
		return "double precision"
	case KindNumeric:
		if t.Precision > 0 {
			return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
		}
		return "numeric"
	case KindText:
		return "text"
	case KindVarchar:
		if t.Length > 0 {
			return fmt.Sprintf("varchar(%d)", t.Length)
		}
		return "varchar"
	case KindUUID:
		return "uuid"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTZ:
		return "timestamptz"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindJSON:
		return "json"
	case KindJSONB:
		return "jsonb"
	case KindBytea:
		return "bytea"
	case KindEnum:
		return t.EnumName
	case KindVector:
		return fmt.Sprintf("vector(%d)", t.Length)
	case KindArray:
		if t.Elem == nil {
			return "anyarray"
		}
		return t.Elem.SQL() + "[]"
	default:
		return "text"
	}
}
