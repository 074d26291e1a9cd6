package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"attestScope/internal/config"
	"attestScope/internal/schema"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	if cfg.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if cfg.Data == "" {
		return fmt.Errorf("data is required")
	}

	payload, err := hexutil.Decode(cfg.Data)
	if err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	decoded, err := schema.DecodeJSON(payload, cfg.Schema)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
