package indexer

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"attestScope/internal/eas"
	"attestScope/internal/enrich"
	"attestScope/internal/model"
)

// buildStub carries an Attested log's identity into the enrichment queue.
func buildStub(chainID uint64, log types.Log, timestamp uint64, event eas.AttestedEvent) enrich.Stub {
	return enrich.Stub{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockTime:   timestamp,
		TxHash:      log.TxHash,
		LogIndex:    uint64(log.Index),
		Recipient:   event.Recipient,
		Attester:    event.Attester,
		SchemaUID:   event.SchemaUID,
		UID:         event.UID,
	}
}

func buildRevokedRecord(chainID uint64, log types.Log, timestamp uint64, event eas.RevokedEvent) model.RevokedRecord {
	return model.RevokedRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockTime:   timestamp,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Attester:    hexutil.Encode(event.Attester.Bytes()),
		Recipient:   hexutil.Encode(event.Recipient.Bytes()),
		SchemaUID:   event.SchemaUID.Hex(),
		UID:         event.UID.Hex(),
	}
}

func buildRevokedOffchainRecord(chainID uint64, log types.Log, timestamp uint64, event eas.RevokedOffchainEvent) model.RevokedOffchainRecord {
	return model.RevokedOffchainRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockTime:   timestamp,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Revoker:     hexutil.Encode(event.Revoker.Bytes()),
		Data:        event.Data.Hex(),
		Timestamp:   event.Timestamp,
	}
}

func buildTimestampedRecord(chainID uint64, log types.Log, timestamp uint64, event eas.TimestampedEvent) model.TimestampedRecord {
	return model.TimestampedRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockTime:   timestamp,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Data:        event.Data.Hex(),
		Timestamp:   event.Timestamp,
	}
}
