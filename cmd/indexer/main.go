package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"attestScope/internal/chain"
	"attestScope/internal/config"
	"attestScope/internal/eas"
	"attestScope/internal/enrich"
	"attestScope/internal/indexer"
	"attestScope/internal/storage"
	"attestScope/internal/storage/kafka"
	"attestScope/internal/storage/postgres"
)

func main() {
	// Values from a local .env feed the INDEXER_* environment lookups.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "indexer",
		Short:        "EAS attestation indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the indexer",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "chain RPC URL")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	runCmd.Flags().String("eas-address", config.DefaultEASAddress, "EAS contract address")
	runCmd.Flags().String("registry-address", config.DefaultRegistryAddress, "schema registry contract address")
	runCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	runCmd.Flags().Int("call-batch-size", 100, "attestation lookups per batch")
	runCmd.Flags().Bool("call-at-block", false, "pin attestation lookups to the emitting block (requires archive RPC)")
	runCmd.Flags().String("out", "./data", "output directory for JSONL files, empty disables")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN, empty disables")
	runCmd.Flags().String("kafka-broker", "", "Kafka bootstrap server, empty disables")
	runCmd.Flags().String("kafka-topic-prefix", "eas", "Kafka topic prefix")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode attestation data against a schema",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("schema", "", "schema signature, e.g. \"uint256 value, address to\"")
	decodeCmd.Flags().String("data", "", "ABI-encoded attestation data (0x hex)")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	easAddress, err := indexer.ParseAddress(cfg.EASAddress)
	if err != nil {
		return fmt.Errorf("eas address: %w", err)
	}
	registryAddress, err := indexer.ParseAddress(cfg.RegistryAddress)
	if err != nil {
		return fmt.Errorf("registry address: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	sink, closeSinks, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	contract := eas.NewContract(chainClient, easAddress)
	registry := eas.NewRegistry(chainClient, registryAddress)

	enricher := enrich.NewEnricher(enrich.Config{
		BatchSize:   cfg.CallBatchSize,
		CallAtBlock: cfg.CallAtBlock,
	}, contract, registry, logger)

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		EASAddress:        easAddress,
		BlockBatchSize:    cfg.BlockBatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, enricher, sink, logger)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("eas_address", easAddress.Hex()),
		zap.String("registry_address", registryAddress.Hex()),
		zap.Uint64("batch_size", cfg.BlockBatchSize),
		zap.Int("call_batch_size", cfg.CallBatchSize),
		zap.Bool("call_at_block", cfg.CallAtBlock),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

// buildSink assembles the configured sinks and returns a closer that
// releases them in order.
func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Sink, func(), error) {
	var sinks storage.Multi
	var closers []func()

	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlSink(cfg.Out))
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		sinks = append(sinks, store)
		closers = append(closers, store.Close)
	}

	if cfg.KafkaBroker != "" {
		producer, err := kafka.NewProducer(cfg.KafkaBroker, kafka.TopicsWithPrefix(cfg.KafkaTopicPrefix), logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect kafka: %w", err)
		}
		sinks = append(sinks, producer)
		closers = append(closers, producer.Close)
	}

	if len(sinks) == 0 {
		return nil, nil, fmt.Errorf("no sink configured: set out, pg-dsn, or kafka-broker")
	}

	return sinks, closeAll, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
