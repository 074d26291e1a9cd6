// Package eas binds the Ethereum Attestation Service contract and its schema
// registry: read-only call wrappers plus event log parsers.
package eas

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// easABIJSON covers the EAS events the indexer tracks and the getAttestation
// view used for enrichment.
const easABIJSON = `[
	{"anonymous": false, "inputs": [
		{"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
		{"indexed": true, "internalType": "address", "name": "attester", "type": "address"},
		{"indexed": false, "internalType": "bytes32", "name": "uid", "type": "bytes32"},
		{"indexed": true, "internalType": "bytes32", "name": "schema", "type": "bytes32"}
	], "name": "Attested", "type": "event"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
		{"indexed": true, "internalType": "address", "name": "attester", "type": "address"},
		{"indexed": false, "internalType": "bytes32", "name": "uid", "type": "bytes32"},
		{"indexed": true, "internalType": "bytes32", "name": "schema", "type": "bytes32"}
	], "name": "Revoked", "type": "event"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "internalType": "address", "name": "revoker", "type": "address"},
		{"indexed": true, "internalType": "bytes32", "name": "data", "type": "bytes32"},
		{"indexed": true, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
	], "name": "RevokedOffchain", "type": "event"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "internalType": "bytes32", "name": "data", "type": "bytes32"},
		{"indexed": true, "internalType": "uint64", "name": "timestamp", "type": "uint64"}
	], "name": "Timestamped", "type": "event"},
	{"inputs": [{"internalType": "bytes32", "name": "uid", "type": "bytes32"}],
	 "name": "getAttestation",
	 "outputs": [{"components": [
		{"internalType": "bytes32", "name": "uid", "type": "bytes32"},
		{"internalType": "bytes32", "name": "schema", "type": "bytes32"},
		{"internalType": "uint64", "name": "time", "type": "uint64"},
		{"internalType": "uint64", "name": "expirationTime", "type": "uint64"},
		{"internalType": "uint64", "name": "revocationTime", "type": "uint64"},
		{"internalType": "bytes32", "name": "refUID", "type": "bytes32"},
		{"internalType": "address", "name": "recipient", "type": "address"},
		{"internalType": "address", "name": "attester", "type": "address"},
		{"internalType": "bool", "name": "revocable", "type": "bool"},
		{"internalType": "bytes", "name": "data", "type": "bytes"}
	 ], "internalType": "struct Attestation", "name": "", "type": "tuple"}],
	 "stateMutability": "view", "type": "function"}
]`

// registryABIJSON covers the schema registry lookup used to resolve schema
// text for decoding.
const registryABIJSON = `[
	{"inputs": [{"internalType": "bytes32", "name": "uid", "type": "bytes32"}],
	 "name": "getSchema",
	 "outputs": [{"components": [
		{"internalType": "bytes32", "name": "uid", "type": "bytes32"},
		{"internalType": "contract ISchemaResolver", "name": "resolver", "type": "address"},
		{"internalType": "bool", "name": "revocable", "type": "bool"},
		{"internalType": "string", "name": "schema", "type": "string"}
	 ], "internalType": "struct SchemaRecord", "name": "", "type": "tuple"}],
	 "stateMutability": "view", "type": "function"}
]`

var (
	easABIOnce sync.Once
	easABI     abi.ABI
	easABIErr  error

	registryABIOnce sync.Once
	registryABI     abi.ABI
	registryABIErr  error
)

// ContractABI returns the parsed EAS contract ABI.
func ContractABI() (abi.ABI, error) {
	easABIOnce.Do(func() {
		easABI, easABIErr = abi.JSON(strings.NewReader(easABIJSON))
	})
	return easABI, easABIErr
}

// RegistryABI returns the parsed schema registry ABI.
func RegistryABI() (abi.ABI, error) {
	registryABIOnce.Do(func() {
		registryABI, registryABIErr = abi.JSON(strings.NewReader(registryABIJSON))
	})
	return registryABI, registryABIErr
}
