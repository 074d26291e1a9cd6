package schema

// DecodeJSON decodes an ABI-encoded payload against a schema signature and
// projects the result into a JSON-shaped map keyed by the signature's field
// names. Signature problems surface as *ParseError, payload problems as
// *DecodeError.
func DecodeJSON(payload []byte, signature string) (map[string]interface{}, error) {
	fields, err := ParseFields(signature)
	if err != nil {
		return nil, err
	}
	args, err := Resolve(fields)
	if err != nil {
		return nil, err
	}
	values, err := args.Unpack(payload)
	if err != nil {
		return nil, &DecodeError{Schema: signature, Err: err}
	}
	return Project(fields, values), nil
}
