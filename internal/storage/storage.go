// Package storage defines the sink interface for indexed records and the
// JSONL file implementation.
package storage

import (
	"context"

	"attestScope/internal/model"
)

// Sink receives batches of indexed records. Batches arrive in block order;
// implementations must keep the order they are given.
type Sink interface {
	PutAttested(ctx context.Context, records []model.AttestedRecord) error
	PutRevoked(ctx context.Context, records []model.RevokedRecord) error
	PutRevokedOffchain(ctx context.Context, records []model.RevokedOffchainRecord) error
	PutTimestamped(ctx context.Context, records []model.TimestampedRecord) error
}

// Multi fans each batch out to every sink in order, stopping at the first
// failure.
type Multi []Sink

func (m Multi) PutAttested(ctx context.Context, records []model.AttestedRecord) error {
	for _, sink := range m {
		if err := sink.PutAttested(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutRevoked(ctx context.Context, records []model.RevokedRecord) error {
	for _, sink := range m {
		if err := sink.PutRevoked(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutRevokedOffchain(ctx context.Context, records []model.RevokedOffchainRecord) error {
	for _, sink := range m {
		if err := sink.PutRevokedOffchain(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) PutTimestamped(ctx context.Context, records []model.TimestampedRecord) error {
	for _, sink := range m {
		if err := sink.PutTimestamped(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
