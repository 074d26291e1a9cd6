// Package indexer drives the scan loop: fetch EAS logs in block batches,
// enrich attestations, and hand the records to storage.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"attestScope/internal/chain"
	"attestScope/internal/eas"
	"attestScope/internal/enrich"
	"attestScope/internal/model"
	"attestScope/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	EASAddress        common.Address
	BlockBatchSize    uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner scans a block range for EAS logs, enriches Attested events into
// full records, and writes everything to the configured sink.
type Runner struct {
	cfg        RunConfig
	chain      *chain.Client
	enricher   *enrich.Enricher
	sink       storage.Sink
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainClient *chain.Client, enricher *enrich.Enricher, sink storage.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		enricher:   enricher,
		sink:       sink,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.enricher == nil {
		return fmt.Errorf("enricher is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.BlockBatchSize == 0 {
		return fmt.Errorf("block batch size must be greater than zero")
	}
	if r.cfg.EASAddress == (common.Address{}) {
		return fmt.Errorf("eas address is required")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	topics, err := eas.EventTopics()
	if err != nil {
		return err
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BlockBatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To, topics)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		if err := r.processLogs(ctx, chainIDValue, topics, logs, blockRange); err != nil {
			return err
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(blockRange.To); err != nil {
				return err
			}
		}
	}

	return nil
}

// processLogs partitions one batch of logs by event, enriches the Attested
// stubs, and writes all four record kinds in block order.
func (r *Runner) processLogs(ctx context.Context, chainID uint64, topics eas.Topics, logs []types.Log, blockRange BlockRange) error {
	var (
		stubs           []enrich.Stub
		revoked         []model.RevokedRecord
		revokedOffchain []model.RevokedOffchainRecord
		timestamped     []model.TimestampedRecord
	)

	for _, log := range logs {
		if len(log.Topics) == 0 || log.Removed || r.isDuplicate(log) {
			continue
		}

		ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
		if err != nil {
			return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}

		switch log.Topics[0] {
		case topics.Attested:
			event, err := eas.ParseAttested(log)
			if err != nil {
				r.warnMalformed("Attested", log, err)
				continue
			}
			stubs = append(stubs, buildStub(chainID, log, ts, event))
		case topics.Revoked:
			event, err := eas.ParseRevoked(log)
			if err != nil {
				r.warnMalformed("Revoked", log, err)
				continue
			}
			revoked = append(revoked, buildRevokedRecord(chainID, log, ts, event))
		case topics.RevokedOffchain:
			event, err := eas.ParseRevokedOffchain(log)
			if err != nil {
				r.warnMalformed("RevokedOffchain", log, err)
				continue
			}
			revokedOffchain = append(revokedOffchain, buildRevokedOffchainRecord(chainID, log, ts, event))
		case topics.Timestamped:
			event, err := eas.ParseTimestamped(log)
			if err != nil {
				r.warnMalformed("Timestamped", log, err)
				continue
			}
			timestamped = append(timestamped, buildTimestampedRecord(chainID, log, ts, event))
		}
	}

	attested, err := r.enricher.Enrich(ctx, stubs)
	if err != nil {
		return fmt.Errorf("enrich attestations: %w", err)
	}

	if err := r.sink.PutAttested(ctx, attested); err != nil {
		return fmt.Errorf("store attested: %w", err)
	}
	if err := r.sink.PutRevoked(ctx, revoked); err != nil {
		return fmt.Errorf("store revoked: %w", err)
	}
	if err := r.sink.PutRevokedOffchain(ctx, revokedOffchain); err != nil {
		return fmt.Errorf("store revoked offchain: %w", err)
	}
	if err := r.sink.PutTimestamped(ctx, timestamped); err != nil {
		return fmt.Errorf("store timestamped: %w", err)
	}

	r.logger.Info("batch complete",
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
		zap.Int("attested", len(attested)),
		zap.Int("revoked", len(revoked)),
		zap.Int("revoked_offchain", len(revokedOffchain)),
		zap.Int("timestamped", len(timestamped)),
	)
	return nil
}

func (r *Runner) warnMalformed(event string, log types.Log, err error) {
	r.logger.Warn("skip malformed log",
		zap.String("event", event),
		zap.String("tx_hash", log.TxHash.Hex()),
		zap.Uint64("block_number", log.BlockNumber),
		zap.Error(err),
	)
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64, topics eas.Topics) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, []common.Address{r.cfg.EASAddress}, topics.All())
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
