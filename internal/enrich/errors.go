package enrich

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CallError wraps a failed read-only contract call. It aborts the enclosing
// unit of work; retrying is up to the caller.
type CallError struct {
	Op  string
	Key common.Hash
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key.Hex(), e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// MissingSchemaError reports an attestation whose schema uid is absent from
// the fetched schema map. The registry echoes the uid of every entry it
// returns, so a miss means the attestation and registry data disagree.
type MissingSchemaError struct {
	UID       common.Hash
	SchemaUID common.Hash
}

func (e *MissingSchemaError) Error() string {
	return fmt.Sprintf("attestation %s references schema %s missing from the schema map", e.UID.Hex(), e.SchemaUID.Hex())
}
