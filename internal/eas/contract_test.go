package eas

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type stubCaller struct {
	resp      []byte
	err       error
	lastMsg   ethereum.CallMsg
	lastBlock *big.Int
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	s.lastMsg = msg
	s.lastBlock = block
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestGetAttestation(t *testing.T) {
	parsed, err := ContractABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	want := attestationResult{
		Uid:       [32]byte{0x01},
		Schema:    [32]byte{0x02},
		Time:      1700000000,
		RefUID:    [32]byte{0x03},
		Recipient: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Attester:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Revocable: true,
		Data:      []byte{0xde, 0xad, 0xbe, 0xef},
	}
	resp, err := parsed.Methods["getAttestation"].Outputs.Pack(want)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	caller := &stubCaller{resp: resp}
	address := common.HexToAddress("0x4200000000000000000000000000000000000021")
	contract := NewContract(caller, address)

	got, err := contract.GetAttestation(context.Background(), common.Hash{0x01}, nil)
	if err != nil {
		t.Fatalf("GetAttestation returned error: %v", err)
	}
	if got.UID != (common.Hash{0x01}) || got.SchemaUID != (common.Hash{0x02}) || got.RefUID != (common.Hash{0x03}) {
		t.Errorf("unexpected uids: %+v", got)
	}
	if got.Recipient != want.Recipient || got.Attester != want.Attester {
		t.Errorf("unexpected parties: %+v", got)
	}
	if got.Time != want.Time || !got.Revocable {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Errorf("unexpected data: %x", got.Data)
	}

	if caller.lastMsg.To == nil || *caller.lastMsg.To != address {
		t.Errorf("call sent to %v, expected %s", caller.lastMsg.To, address)
	}
	if !bytes.Equal(caller.lastMsg.Data[:4], parsed.Methods["getAttestation"].ID) {
		t.Errorf("unexpected method selector %x", caller.lastMsg.Data[:4])
	}
	if caller.lastBlock != nil {
		t.Errorf("expected latest-state call, got block %v", caller.lastBlock)
	}
}

func TestGetAttestationPinnedBlock(t *testing.T) {
	parsed, err := ContractABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	resp, err := parsed.Methods["getAttestation"].Outputs.Pack(attestationResult{Data: []byte{}})
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}
	caller := &stubCaller{resp: resp}
	contract := NewContract(caller, common.Address{0x21})

	if _, err := contract.GetAttestation(context.Background(), common.Hash{}, big.NewInt(123)); err != nil {
		t.Fatalf("GetAttestation returned error: %v", err)
	}
	if caller.lastBlock == nil || caller.lastBlock.Int64() != 123 {
		t.Errorf("expected call pinned to block 123, got %v", caller.lastBlock)
	}
}

func TestGetAttestationCallFailure(t *testing.T) {
	caller := &stubCaller{err: errors.New("connection reset")}
	contract := NewContract(caller, common.Address{0x21})

	if _, err := contract.GetAttestation(context.Background(), common.Hash{0x01}, nil); err == nil {
		t.Fatal("expected error, got none")
	}
}

func TestGetSchema(t *testing.T) {
	parsed, err := RegistryABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	want := schemaResult{
		Uid:       [32]byte{0x02},
		Resolver:  common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Revocable: true,
		Schema:    "uint256 value, address holder",
	}
	resp, err := parsed.Methods["getSchema"].Outputs.Pack(want)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	caller := &stubCaller{resp: resp}
	address := common.HexToAddress("0x4200000000000000000000000000000000000020")
	registry := NewRegistry(caller, address)

	got, err := registry.GetSchema(context.Background(), common.Hash{0x02}, nil)
	if err != nil {
		t.Fatalf("GetSchema returned error: %v", err)
	}
	if got.UID != (common.Hash{0x02}) {
		t.Errorf("unexpected uid: %s", got.UID)
	}
	if got.Resolver != want.Resolver || !got.Revocable {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Schema != want.Schema {
		t.Errorf("expected schema %q, got %q", want.Schema, got.Schema)
	}
	if caller.lastMsg.To == nil || *caller.lastMsg.To != address {
		t.Errorf("call sent to %v, expected %s", caller.lastMsg.To, address)
	}
}

func TestGetSchemaMalformedResponse(t *testing.T) {
	caller := &stubCaller{resp: []byte{0x01, 0x02}}
	registry := NewRegistry(caller, common.Address{0x20})

	if _, err := registry.GetSchema(context.Background(), common.Hash{0x02}, nil); err == nil {
		t.Fatal("expected error for malformed response, got none")
	}
}
