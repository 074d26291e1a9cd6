package eas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the read-only contract call surface the bindings need. A nil
// block number queries latest state.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Attestation is the full on-chain record returned by getAttestation. Data
// holds the ABI-encoded payload described by the attestation's schema.
type Attestation struct {
	UID            common.Hash
	SchemaUID      common.Hash
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	RefUID         common.Hash
	Recipient      common.Address
	Attester       common.Address
	Revocable      bool
	Data           []byte
}

// attestationResult mirrors the getAttestation output tuple; field order
// must match the ABI component order.
type attestationResult struct {
	Uid            [32]byte
	Schema         [32]byte
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	RefUID         [32]byte
	Recipient      common.Address
	Attester       common.Address
	Revocable      bool
	Data           []byte
}

// Contract issues read-only calls against the EAS contract.
type Contract struct {
	caller  Caller
	address common.Address
}

func NewContract(caller Caller, address common.Address) *Contract {
	return &Contract{caller: caller, address: address}
}

// GetAttestation fetches the attestation record for uid. Unknown uids come
// back as a zero-valued record, matching the contract's behavior.
func (c *Contract) GetAttestation(ctx context.Context, uid common.Hash, block *big.Int) (Attestation, error) {
	parsed, err := ContractABI()
	if err != nil {
		return Attestation{}, fmt.Errorf("parse eas abi: %w", err)
	}
	out, err := callMethod(ctx, c.caller, parsed, c.address, "getAttestation", block, uid)
	if err != nil {
		return Attestation{}, err
	}
	if len(out) != 1 {
		return Attestation{}, fmt.Errorf("getAttestation: expected 1 output, got %d", len(out))
	}
	raw := *abi.ConvertType(out[0], new(attestationResult)).(*attestationResult)
	return Attestation{
		UID:            common.Hash(raw.Uid),
		SchemaUID:      common.Hash(raw.Schema),
		Time:           raw.Time,
		ExpirationTime: raw.ExpirationTime,
		RevocationTime: raw.RevocationTime,
		RefUID:         common.Hash(raw.RefUID),
		Recipient:      raw.Recipient,
		Attester:       raw.Attester,
		Revocable:      raw.Revocable,
		Data:           raw.Data,
	}, nil
}

// callMethod packs a method call, executes it against address, and unpacks
// the raw outputs.
func callMethod(ctx context.Context, caller Caller, parsed abi.ABI, address common.Address, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &address, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}
