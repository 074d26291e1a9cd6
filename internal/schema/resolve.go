package schema

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Resolve maps parsed fields onto go-ethereum ABI argument types so payloads
// can be unpacked with the standard decoder. Tuple components get positional
// names (arg0, arg1, ...) because schema field names are free-form and may
// collide or be empty; the declared names are reattached during projection.
func Resolve(fields []Field) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(fields))
	for i, field := range fields {
		typeToken, components := abiTypeOf(field.Type)
		parsed, err := abi.NewType(typeToken, "", components)
		if err != nil {
			return nil, fmt.Errorf("resolve field %d (%s): %w", i, typeToken, err)
		}
		args = append(args, abi.Argument{Name: fmt.Sprintf("arg%d", i), Type: parsed})
	}
	return args, nil
}

// abiTypeOf renders a FieldType as an ABI type string plus the component
// list abi.NewType needs for tuples.
func abiTypeOf(fieldType FieldType) (string, []abi.ArgumentMarshaling) {
	switch fieldType.Kind {
	case KindTuple:
		components := make([]abi.ArgumentMarshaling, 0, len(fieldType.Fields))
		for i, sub := range fieldType.Fields {
			subType, subComponents := abiTypeOf(sub.Type)
			components = append(components, abi.ArgumentMarshaling{
				Name:       fmt.Sprintf("arg%d", i),
				Type:       subType,
				Components: subComponents,
			})
		}
		return "tuple", components
	case KindArray:
		elemType, components := abiTypeOf(*fieldType.Elem)
		return elemType + "[]", components
	default:
		return fieldType.Prim, nil
	}
}
