package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFields parses a comma-separated schema signature such as
// "uint256 amount, address holder" into its ordered fields. Commas and
// spaces inside tuple parentheses never split fields or names. A field
// declared without a name receives DefaultFieldName, and a trailing comma
// is tolerated. An empty signature yields zero fields.
func ParseFields(signature string) ([]Field, error) {
	return parseFieldList(signature, 0)
}

// parseFieldList splits list on commas at parenthesis depth zero and parses
// each segment. base is the byte offset of list within the full signature,
// carried so error offsets stay relative to the full signature.
func parseFieldList(list string, base int) ([]Field, error) {
	var fields []Field
	depth := 0
	start := 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				field, err := parseField(list[start:i], base+start)
				if err != nil {
					return nil, err
				}
				fields = append(fields, field)
				start = i + 1
			}
		}
	}
	if rest := list[start:]; strings.TrimSpace(rest) != "" {
		field, err := parseField(rest, base+start)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// parseField splits one declaration into its type token and optional name at
// the last space outside parentheses, so tuple component names stay attached
// to their components.
func parseField(decl string, base int) (Field, error) {
	lead := len(decl) - len(strings.TrimLeft(decl, " \t"))
	trimmed := strings.TrimSpace(decl)
	if trimmed == "" {
		return Field{}, &ParseError{Pos: base, Token: decl, Reason: "empty field declaration"}
	}
	pos := base + lead

	typeEnd := 0
	depth := 0
	for i := len(trimmed) - 1; i >= 0 && typeEnd == 0; i-- {
		switch trimmed[i] {
		case ')':
			depth++
		case '(':
			depth--
		case ' ':
			if depth == 0 {
				typeEnd = i
			}
		}
	}

	typeToken, name := trimmed, DefaultFieldName
	if typeEnd > 0 {
		typeToken = strings.TrimSpace(trimmed[:typeEnd])
		name = strings.TrimSpace(trimmed[typeEnd:])
	}

	fieldType, err := parseType(typeToken, pos)
	if err != nil {
		return Field{}, err
	}
	return Field{Type: fieldType, Name: name}, nil
}

// parseType parses a single type token: tuple(...), a []-suffixed array, or
// a primitive from the fixed vocabulary.
func parseType(token string, pos int) (FieldType, error) {
	token = strings.TrimSpace(token)
	switch {
	case strings.HasPrefix(token, "tuple(") && strings.HasSuffix(token, ")"):
		inner := token[len("tuple(") : len(token)-1]
		fields, err := parseFieldList(inner, pos+len("tuple("))
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Kind: KindTuple, Fields: fields}, nil
	case strings.HasSuffix(token, "[]"):
		elem, err := parseType(token[:len(token)-len("[]")], pos)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Kind: KindArray, Elem: &elem}, nil
	}
	prim, err := parsePrimitive(token, pos)
	if err != nil {
		return FieldType{}, err
	}
	return FieldType{Kind: KindPrimitive, Prim: prim}, nil
}

func parsePrimitive(token string, pos int) (string, error) {
	switch token {
	case "bool", "string", "address", "bytes":
		return token, nil
	}
	switch {
	case strings.HasPrefix(token, "uint"):
		if err := checkBitWidth(token[len("uint"):], token, pos); err != nil {
			return "", err
		}
		return token, nil
	case strings.HasPrefix(token, "int"):
		if err := checkBitWidth(token[len("int"):], token, pos); err != nil {
			return "", err
		}
		return token, nil
	case strings.HasPrefix(token, "bytes"):
		if err := checkByteWidth(token[len("bytes"):], token, pos); err != nil {
			return "", err
		}
		return token, nil
	}
	return "", &ParseError{Pos: pos, Token: token, Reason: "unsupported type"}
}

func checkBitWidth(width, token string, pos int) error {
	bits, err := strconv.Atoi(width)
	if err != nil || bits <= 0 {
		return &ParseError{Pos: pos, Token: token, Reason: "invalid integer width"}
	}
	if bits%8 != 0 || bits > 256 {
		reason := fmt.Sprintf("integer width must be a multiple of 8 between 8 and 256, got %d", bits)
		return &ParseError{Pos: pos, Token: token, Reason: reason}
	}
	return nil
}

func checkByteWidth(width, token string, pos int) error {
	n, err := strconv.Atoi(width)
	if err != nil || n <= 0 {
		return &ParseError{Pos: pos, Token: token, Reason: "invalid byte width"}
	}
	if n > 32 {
		reason := fmt.Sprintf("byte width must be between 1 and 32, got %d", n)
		return &ParseError{Pos: pos, Token: token, Reason: reason}
	}
	return nil
}
