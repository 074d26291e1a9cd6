package schema

import "testing"

func TestResolvePrimitives(t *testing.T) {
	fields, err := ParseFields("uint256 a, address b, bytes c, bool d, string e, bytes32 f, int64 g")
	if err != nil {
		t.Fatalf("ParseFields returned error: %v", err)
	}
	args, err := Resolve(fields)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := []string{"uint256", "address", "bytes", "bool", "string", "bytes32", "int64"}
	if len(args) != len(want) {
		t.Fatalf("expected %d arguments, got %d", len(want), len(args))
	}
	for i, typeString := range want {
		if got := args[i].Type.String(); got != typeString {
			t.Errorf("argument %d: expected type %q, got %q", i, typeString, got)
		}
	}
}

func TestResolveCompositeTypes(t *testing.T) {
	fields, err := ParseFields("tuple(uint8 a, string b) pair, uint16[] xs, tuple(address holder)[] holders")
	if err != nil {
		t.Fatalf("ParseFields returned error: %v", err)
	}
	args, err := Resolve(fields)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := []string{"(uint8,string)", "uint16[]", "(address)[]"}
	for i, typeString := range want {
		if got := args[i].Type.String(); got != typeString {
			t.Errorf("argument %d: expected type %q, got %q", i, typeString, got)
		}
	}
}

func TestResolveDuplicateComponentNames(t *testing.T) {
	// Components share a declared name; positional ABI names must still
	// produce a decodable tuple type.
	fields, err := ParseFields("tuple(uint8 v, uint8 v, uint8 v) triple")
	if err != nil {
		t.Fatalf("ParseFields returned error: %v", err)
	}
	args, err := Resolve(fields)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := args[0].Type.String(); got != "(uint8,uint8,uint8)" {
		t.Errorf("expected type %q, got %q", "(uint8,uint8,uint8)", got)
	}
}

func TestResolveRejectsUnknownPrimitive(t *testing.T) {
	fields := []Field{{Name: "x", Type: FieldType{Kind: KindPrimitive, Prim: "uint7"}}}
	if _, err := Resolve(fields); err == nil {
		t.Fatal("expected error for hand-built invalid primitive, got none")
	}
}
