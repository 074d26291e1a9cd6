package eas

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Topics identifies the tracked EAS events by topic0.
type Topics struct {
	Attested        common.Hash
	Revoked         common.Hash
	RevokedOffchain common.Hash
	Timestamped     common.Hash
}

// All lists every tracked topic0 for log filtering.
func (t Topics) All() []common.Hash {
	return []common.Hash{t.Attested, t.Revoked, t.RevokedOffchain, t.Timestamped}
}

// EventTopics returns the topic0 hashes of the events the indexer tracks.
func EventTopics() (Topics, error) {
	parsed, err := ContractABI()
	if err != nil {
		return Topics{}, fmt.Errorf("parse eas abi: %w", err)
	}
	return Topics{
		Attested:        parsed.Events["Attested"].ID,
		Revoked:         parsed.Events["Revoked"].ID,
		RevokedOffchain: parsed.Events["RevokedOffchain"].ID,
		Timestamped:     parsed.Events["Timestamped"].ID,
	}, nil
}

// AttestedEvent carries the decoded fields of an Attested log.
type AttestedEvent struct {
	Recipient common.Address
	Attester  common.Address
	UID       common.Hash
	SchemaUID common.Hash
}

// RevokedEvent carries the decoded fields of a Revoked log. It shares the
// Attested layout.
type RevokedEvent struct {
	Recipient common.Address
	Attester  common.Address
	UID       common.Hash
	SchemaUID common.Hash
}

// RevokedOffchainEvent carries the decoded fields of a RevokedOffchain log.
// Data is the revoked payload hash, not an attestation uid.
type RevokedOffchainEvent struct {
	Revoker   common.Address
	Data      common.Hash
	Timestamp uint64
}

// TimestampedEvent carries the decoded fields of a Timestamped log.
type TimestampedEvent struct {
	Data      common.Hash
	Timestamp uint64
}

// ParseAttested decodes an Attested log.
func ParseAttested(log types.Log) (AttestedEvent, error) {
	return parseAttestationLog("Attested", log)
}

// ParseRevoked decodes a Revoked log.
func ParseRevoked(log types.Log) (RevokedEvent, error) {
	event, err := parseAttestationLog("Revoked", log)
	if err != nil {
		return RevokedEvent{}, err
	}
	return RevokedEvent(event), nil
}

// parseAttestationLog decodes the layout Attested and Revoked share:
// recipient, attester, and schema uid in the topics, attestation uid in the
// data section.
func parseAttestationLog(name string, log types.Log) (AttestedEvent, error) {
	event, err := namedEvent(name)
	if err != nil {
		return AttestedEvent{}, err
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return AttestedEvent{}, fmt.Errorf("log is not %s", name)
	}
	var indexed struct {
		Recipient common.Address
		Attester  common.Address
		Schema    [32]byte
	}
	if err := parseIndexedTopics(&indexed, event, log.Topics); err != nil {
		return AttestedEvent{}, fmt.Errorf("parse %s topics: %w", name, err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return AttestedEvent{}, fmt.Errorf("unpack %s data: %w", name, err)
	}
	if len(values) != 1 {
		return AttestedEvent{}, fmt.Errorf("%s: expected 1 data value, got %d", name, len(values))
	}
	uid, ok := values[0].([32]byte)
	if !ok {
		return AttestedEvent{}, fmt.Errorf("%s: unexpected uid type %T", name, values[0])
	}
	return AttestedEvent{
		Recipient: indexed.Recipient,
		Attester:  indexed.Attester,
		UID:       common.Hash(uid),
		SchemaUID: common.Hash(indexed.Schema),
	}, nil
}

// ParseRevokedOffchain decodes a RevokedOffchain log. All fields are indexed.
func ParseRevokedOffchain(log types.Log) (RevokedOffchainEvent, error) {
	event, err := namedEvent("RevokedOffchain")
	if err != nil {
		return RevokedOffchainEvent{}, err
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return RevokedOffchainEvent{}, fmt.Errorf("log is not RevokedOffchain")
	}
	var indexed struct {
		Revoker   common.Address
		Data      [32]byte
		Timestamp uint64
	}
	if err := parseIndexedTopics(&indexed, event, log.Topics); err != nil {
		return RevokedOffchainEvent{}, fmt.Errorf("parse RevokedOffchain topics: %w", err)
	}
	return RevokedOffchainEvent{
		Revoker:   indexed.Revoker,
		Data:      common.Hash(indexed.Data),
		Timestamp: indexed.Timestamp,
	}, nil
}

// ParseTimestamped decodes a Timestamped log. All fields are indexed.
func ParseTimestamped(log types.Log) (TimestampedEvent, error) {
	event, err := namedEvent("Timestamped")
	if err != nil {
		return TimestampedEvent{}, err
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return TimestampedEvent{}, fmt.Errorf("log is not Timestamped")
	}
	var indexed struct {
		Data      [32]byte
		Timestamp uint64
	}
	if err := parseIndexedTopics(&indexed, event, log.Topics); err != nil {
		return TimestampedEvent{}, fmt.Errorf("parse Timestamped topics: %w", err)
	}
	return TimestampedEvent{
		Data:      common.Hash(indexed.Data),
		Timestamp: indexed.Timestamp,
	}, nil
}

func namedEvent(name string) (abi.Event, error) {
	parsed, err := ContractABI()
	if err != nil {
		return abi.Event{}, fmt.Errorf("parse eas abi: %w", err)
	}
	event, ok := parsed.Events[name]
	if !ok {
		return abi.Event{}, fmt.Errorf("unknown event %s", name)
	}
	return event, nil
}

// parseIndexedTopics checks the topic count against the event's indexed
// inputs and decodes topics[1:] into out.
func parseIndexedTopics(out interface{}, event abi.Event, topics []common.Hash) error {
	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed)+1 {
		return fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(topics))
	}
	return abi.ParseTopics(out, indexed, topics[1:])
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
