package eas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// SchemaRecord is a schema registry entry. Schema holds the human-readable
// signature used to decode attestation payloads.
type SchemaRecord struct {
	UID       common.Hash
	Resolver  common.Address
	Revocable bool
	Schema    string
}

type schemaResult struct {
	Uid       [32]byte
	Resolver  common.Address
	Revocable bool
	Schema    string
}

// Registry issues read-only calls against the schema registry contract.
type Registry struct {
	caller  Caller
	address common.Address
}

func NewRegistry(caller Caller, address common.Address) *Registry {
	return &Registry{caller: caller, address: address}
}

// GetSchema fetches the registry entry for uid. Unknown uids come back as a
// zero-valued record, matching the contract's behavior.
func (r *Registry) GetSchema(ctx context.Context, uid common.Hash, block *big.Int) (SchemaRecord, error) {
	parsed, err := RegistryABI()
	if err != nil {
		return SchemaRecord{}, fmt.Errorf("parse registry abi: %w", err)
	}
	out, err := callMethod(ctx, r.caller, parsed, r.address, "getSchema", block, uid)
	if err != nil {
		return SchemaRecord{}, err
	}
	if len(out) != 1 {
		return SchemaRecord{}, fmt.Errorf("getSchema: expected 1 output, got %d", len(out))
	}
	raw := *abi.ConvertType(out[0], new(schemaResult)).(*schemaResult)
	return SchemaRecord{
		UID:       common.Hash(raw.Uid),
		Resolver:  raw.Resolver,
		Revocable: raw.Revocable,
		Schema:    raw.Schema,
	}, nil
}
