package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"attestScope/internal/model"
)

// JsonlSink appends records as JSON lines under a directory, one file per
// event type.
type JsonlSink struct {
	dir string
	mu  sync.Mutex
}

func NewJsonlSink(dir string) *JsonlSink {
	return &JsonlSink{dir: dir}
}

func (s *JsonlSink) PutAttested(_ context.Context, records []model.AttestedRecord) error {
	return appendJSONL(s, "attested.jsonl", records)
}

func (s *JsonlSink) PutRevoked(_ context.Context, records []model.RevokedRecord) error {
	return appendJSONL(s, "revoked.jsonl", records)
}

func (s *JsonlSink) PutRevokedOffchain(_ context.Context, records []model.RevokedOffchainRecord) error {
	return appendJSONL(s, "revoked_offchain.jsonl", records)
}

func (s *JsonlSink) PutTimestamped(_ context.Context, records []model.TimestampedRecord) error {
	return appendJSONL(s, "timestamped.jsonl", records)
}

func appendJSONL[T any](s *JsonlSink, name string, records []T) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
