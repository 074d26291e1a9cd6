// Package schema parses EAS schema signatures and decodes attestation
// payloads into JSON-shaped values keyed by the signature's field names.
package schema

// Kind discriminates the FieldType variants.
type Kind uint8

const (
	// KindPrimitive is a leaf type such as uint256, address, or bytes32.
	KindPrimitive Kind = iota
	// KindTuple is an ordered group of named sub-fields.
	KindTuple
	// KindArray is a dynamic-length list of one element type.
	KindArray
)

// FieldType is the type tree for a single schema field. Exactly one of
// Prim, Fields, or Elem is populated, selected by Kind.
type FieldType struct {
	Kind   Kind
	Prim   string     // canonical primitive token, set when Kind == KindPrimitive
	Fields []Field    // tuple components, set when Kind == KindTuple
	Elem   *FieldType // element type, set when Kind == KindArray
}

// Field pairs a type with its declared name.
type Field struct {
	Type FieldType
	Name string
}

// DefaultFieldName is assigned to fields declared without a name.
const DefaultFieldName = "field"
