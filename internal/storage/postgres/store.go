// Package postgres persists indexed records in Postgres via pgx batches.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attestScope/internal/model"
)

// Store implements storage.Sink on a pgx connection pool. Writes are
// idempotent upserts so re-indexing a range is safe.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutAttested upserts attestation records keyed by uid.
func (s *Store) PutAttested(ctx context.Context, records []model.AttestedRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		decoded, err := json.Marshal(record.Decoded)
		if err != nil {
			return fmt.Errorf("marshal decoded payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO attestations (
				chain_id, block_number, block_time, tx_hash, log_index,
				attester, recipient, schema_uid, uid, data, schema, decoded_data,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
			ON CONFLICT (chain_id, uid)
			DO UPDATE SET
				schema = EXCLUDED.schema,
				decoded_data = EXCLUDED.decoded_data,
				updated_at = now()
		`,
			int64(record.ChainID),
			int64(record.BlockNumber),
			int64(record.BlockTime),
			record.TxHash,
			int64(record.LogIndex),
			record.Attester,
			record.Recipient,
			record.SchemaUID,
			record.UID,
			record.Data,
			record.Schema,
			decoded,
		)
	}
	return s.sendBatch(ctx, batch, len(records))
}

// PutRevoked upserts revocation records keyed by uid.
func (s *Store) PutRevoked(ctx context.Context, records []model.RevokedRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO revocations (
				chain_id, block_number, block_time, tx_hash, log_index,
				attester, recipient, schema_uid, uid, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
			ON CONFLICT (chain_id, uid)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				block_time = EXCLUDED.block_time,
				updated_at = now()
		`,
			int64(record.ChainID),
			int64(record.BlockNumber),
			int64(record.BlockTime),
			record.TxHash,
			int64(record.LogIndex),
			record.Attester,
			record.Recipient,
			record.SchemaUID,
			record.UID,
		)
	}
	return s.sendBatch(ctx, batch, len(records))
}

// PutRevokedOffchain upserts offchain revocation records keyed by log
// position, since the same payload hash can be revoked repeatedly.
func (s *Store) PutRevokedOffchain(ctx context.Context, records []model.RevokedOffchainRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO offchain_revocations (
				chain_id, block_number, block_time, tx_hash, log_index,
				revoker, data, timestamp, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
			ON CONFLICT (chain_id, tx_hash, log_index)
			DO UPDATE SET updated_at = now()
		`,
			int64(record.ChainID),
			int64(record.BlockNumber),
			int64(record.BlockTime),
			record.TxHash,
			int64(record.LogIndex),
			record.Revoker,
			record.Data,
			int64(record.Timestamp),
		)
	}
	return s.sendBatch(ctx, batch, len(records))
}

// PutTimestamped upserts timestamp records keyed by log position.
func (s *Store) PutTimestamped(ctx context.Context, records []model.TimestampedRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO timestamps (
				chain_id, block_number, block_time, tx_hash, log_index,
				data, timestamp, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
			ON CONFLICT (chain_id, tx_hash, log_index)
			DO UPDATE SET updated_at = now()
		`,
			int64(record.ChainID),
			int64(record.BlockNumber),
			int64(record.BlockTime),
			record.TxHash,
			int64(record.LogIndex),
			record.Data,
			int64(record.Timestamp),
		)
	}
	return s.sendBatch(ctx, batch, len(records))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, queued int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
