// Package enrich turns Attested log stubs into full records by fetching
// attestation payloads and schema texts over read-only contract calls, then
// decoding each payload against its schema.
package enrich

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"attestScope/internal/eas"
	"attestScope/internal/model"
	"attestScope/internal/schema"
)

// DefaultBatchSize bounds how many contract calls run concurrently in one
// wave.
const DefaultBatchSize = 100

// Stub references one Attested log awaiting enrichment.
type Stub struct {
	ChainID     uint64
	BlockNumber uint64
	BlockTime   uint64
	TxHash      common.Hash
	LogIndex    uint64
	Recipient   common.Address
	Attester    common.Address
	SchemaUID   common.Hash
	UID         common.Hash
}

// AttestationSource fetches full attestation records.
type AttestationSource interface {
	GetAttestation(ctx context.Context, uid common.Hash, block *big.Int) (eas.Attestation, error)
}

// SchemaSource fetches schema registry entries.
type SchemaSource interface {
	GetSchema(ctx context.Context, uid common.Hash, block *big.Int) (eas.SchemaRecord, error)
}

// Config controls enrichment batching.
type Config struct {
	// BatchSize is the number of contract calls issued per wave. Values
	// below 1 fall back to DefaultBatchSize.
	BatchSize int
	// CallAtBlock pins each attestation call to the block of its log
	// instead of latest state. Requires an archive node.
	CallAtBlock bool
}

// Enricher resolves Attested stubs into full records. Schema texts are
// cached across batches for the lifetime of the Enricher.
type Enricher struct {
	cfg          Config
	attestations AttestationSource
	schemas      SchemaSource
	cache        *SchemaCache
	logger       *zap.Logger
}

func NewEnricher(cfg Config, attestations AttestationSource, schemas SchemaSource, logger *zap.Logger) *Enricher {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		cfg:          cfg,
		attestations: attestations,
		schemas:      schemas,
		cache:        NewSchemaCache(),
		logger:       logger,
	}
}

// Enrich resolves every stub into a record, preserving stub order in the
// result. Stubs are processed in batches of at most BatchSize; a failed
// contract call or an inconsistent schema map aborts the whole call, while a
// payload that fails to decode only degrades its own record.
func (e *Enricher) Enrich(ctx context.Context, stubs []Stub) ([]model.AttestedRecord, error) {
	out := make([]model.AttestedRecord, 0, len(stubs))
	for start := 0; start < len(stubs); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(stubs) {
			end = len(stubs)
		}
		records, err := e.enrichBatch(ctx, stubs[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (e *Enricher) enrichBatch(ctx context.Context, batch []Stub) ([]model.AttestedRecord, error) {
	attestations, err := fanOut(ctx, batch, e.cfg.BatchSize, func(ctx context.Context, stub Stub) (eas.Attestation, error) {
		attestation, err := e.attestations.GetAttestation(ctx, stub.UID, e.callBlock(stub))
		if err != nil {
			return eas.Attestation{}, &CallError{Op: "getAttestation", Key: stub.UID, Err: err}
		}
		return attestation, nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.fetchMissingSchemas(ctx, attestations); err != nil {
		return nil, err
	}

	records := make([]model.AttestedRecord, 0, len(batch))
	for i, stub := range batch {
		record, err := e.buildRecord(stub, attestations[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// fetchMissingSchemas resolves the schema text for every distinct schema uid
// the batch references that is not yet cached. Cache entries are keyed by
// the uid echoed in each registry response, not the requested one, so the
// later join detects registry data that disagrees with the attestations.
func (e *Enricher) fetchMissingSchemas(ctx context.Context, attestations []eas.Attestation) error {
	seen := make(map[common.Hash]struct{}, len(attestations))
	var missing []common.Hash
	for _, attestation := range attestations {
		if _, ok := seen[attestation.SchemaUID]; ok {
			continue
		}
		seen[attestation.SchemaUID] = struct{}{}
		if _, ok := e.cache.Get(attestation.SchemaUID); !ok {
			missing = append(missing, attestation.SchemaUID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	records, err := fanOut(ctx, missing, e.cfg.BatchSize, func(ctx context.Context, uid common.Hash) (eas.SchemaRecord, error) {
		record, err := e.schemas.GetSchema(ctx, uid, nil)
		if err != nil {
			return eas.SchemaRecord{}, &CallError{Op: "getSchema", Key: uid, Err: err}
		}
		return record, nil
	})
	if err != nil {
		return err
	}
	for _, record := range records {
		e.cache.Set(record.UID, record.Schema)
	}
	e.logger.Debug("schema texts fetched",
		zap.Int("fetched", len(missing)),
		zap.Int("cached_total", e.cache.Len()),
	)
	return nil
}

func (e *Enricher) buildRecord(stub Stub, attestation eas.Attestation) (model.AttestedRecord, error) {
	schemaText, ok := e.cache.Get(attestation.SchemaUID)
	if !ok {
		return model.AttestedRecord{}, &MissingSchemaError{UID: stub.UID, SchemaUID: attestation.SchemaUID}
	}

	decoded, err := schema.DecodeJSON(attestation.Data, schemaText)
	if err != nil {
		e.logger.Warn("attestation payload decode failed",
			zap.String("uid", stub.UID.Hex()),
			zap.String("schema_uid", attestation.SchemaUID.Hex()),
			zap.Error(err),
		)
		decoded = map[string]interface{}{"error": err.Error()}
	}

	return model.AttestedRecord{
		ChainID:     stub.ChainID,
		BlockNumber: stub.BlockNumber,
		BlockTime:   stub.BlockTime,
		TxHash:      stub.TxHash.Hex(),
		LogIndex:    stub.LogIndex,
		Attester:    hexutil.Encode(stub.Attester.Bytes()),
		Recipient:   hexutil.Encode(stub.Recipient.Bytes()),
		SchemaUID:   stub.SchemaUID.Hex(),
		UID:         stub.UID.Hex(),
		Data:        hexutil.Encode(attestation.Data),
		Schema:      schemaText,
		Decoded:     decoded,
	}, nil
}

func (e *Enricher) callBlock(stub Stub) *big.Int {
	if !e.cfg.CallAtBlock {
		return nil
	}
	return new(big.Int).SetUint64(stub.BlockNumber)
}

// fanOut runs fn over keys in waves of at most batchSize concurrent calls
// and returns results in key order. Every call in a wave finishes before the
// next wave starts; the first error aborts after the current wave drains.
func fanOut[K, V any](ctx context.Context, keys []K, batchSize int, fn func(context.Context, K) (V, error)) ([]V, error) {
	results := make([]V, len(keys))
	for start := 0; start < len(keys); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}

		var wg sync.WaitGroup
		errs := make([]error, end-start)
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				value, err := fn(ctx, keys[i])
				if err != nil {
					errs[i-start] = err
					return
				}
				results[i] = value
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}
