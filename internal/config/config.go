package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default contract addresses match the OP Stack predeploys, where the
// attestation contracts live at fixed addresses on every chain.
const (
	DefaultEASAddress      = "0x4200000000000000000000000000000000000021"
	DefaultRegistryAddress = "0x4200000000000000000000000000000000000020"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	EASAddress        string
	RegistryAddress   string
	BlockBatchSize    uint64
	CallBatchSize     int
	CallAtBlock       bool
	Out               string
	PGDSN             string
	KafkaBroker       string
	KafkaTopicPrefix  string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("eas-address", DefaultEASAddress)
	v.SetDefault("registry-address", DefaultRegistryAddress)
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("call-batch-size", 100)
	v.SetDefault("call-at-block", false)
	v.SetDefault("out", "./data")
	v.SetDefault("kafka-topic-prefix", "eas")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		EASAddress:        v.GetString("eas-address"),
		RegistryAddress:   v.GetString("registry-address"),
		BlockBatchSize:    v.GetUint64("batch-size"),
		CallBatchSize:     v.GetInt("call-batch-size"),
		CallAtBlock:       v.GetBool("call-at-block"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		KafkaBroker:       v.GetString("kafka-broker"),
		KafkaTopicPrefix:  v.GetString("kafka-topic-prefix"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}
