// Package model defines the output records the indexer emits.
package model

// AttestedRecord is the enriched output for one Attested log: event
// metadata joined with the fetched attestation payload, its schema text,
// and the decoded payload. Decoded holds either the schema-shaped values or
// a single "error" key when the payload did not decode.
type AttestedRecord struct {
	ChainID     uint64                 `json:"chain_id"`
	BlockNumber uint64                 `json:"block_number"`
	BlockTime   uint64                 `json:"block_time"`
	TxHash      string                 `json:"tx_hash"`
	LogIndex    uint64                 `json:"log_index"`
	Attester    string                 `json:"attester"`
	Recipient   string                 `json:"recipient"`
	SchemaUID   string                 `json:"schema_uid"`
	UID         string                 `json:"uid"`
	Data        string                 `json:"data"`
	Schema      string                 `json:"schema"`
	Decoded     map[string]interface{} `json:"decoded_data"`
}

// RevokedRecord is the output for one Revoked log.
type RevokedRecord struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockTime   uint64 `json:"block_time"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Attester    string `json:"attester"`
	Recipient   string `json:"recipient"`
	SchemaUID   string `json:"schema_uid"`
	UID         string `json:"uid"`
}

// RevokedOffchainRecord is the output for one RevokedOffchain log. Data is
// the revoked payload hash rather than an attestation uid.
type RevokedOffchainRecord struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockTime   uint64 `json:"block_time"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Revoker     string `json:"revoker"`
	Data        string `json:"data"`
	Timestamp   uint64 `json:"timestamp"`
}

// TimestampedRecord is the output for one Timestamped log.
type TimestampedRecord struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockTime   uint64 `json:"block_time"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Data        string `json:"data"`
	Timestamp   uint64 `json:"timestamp"`
}
