package enrich

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"attestScope/internal/eas"
)

type fakeAttestationSource struct {
	mu     sync.Mutex
	calls  int
	blocks map[common.Hash]*big.Int
	data   map[common.Hash]eas.Attestation
	errs   map[common.Hash]error
	delays map[common.Hash]time.Duration
}

func (f *fakeAttestationSource) GetAttestation(_ context.Context, uid common.Hash, block *big.Int) (eas.Attestation, error) {
	f.mu.Lock()
	f.calls++
	if f.blocks == nil {
		f.blocks = make(map[common.Hash]*big.Int)
	}
	f.blocks[uid] = block
	delay := f.delays[uid]
	err := f.errs[uid]
	attestation, ok := f.data[uid]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return eas.Attestation{}, err
	}
	if !ok {
		return eas.Attestation{}, fmt.Errorf("no attestation for %s", uid)
	}
	return attestation, nil
}

func (f *fakeAttestationSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSchemaSource struct {
	mu      sync.Mutex
	calls   int
	records map[common.Hash]eas.SchemaRecord
	errs    map[common.Hash]error
}

func (f *fakeSchemaSource) GetSchema(_ context.Context, uid common.Hash, _ *big.Int) (eas.SchemaRecord, error) {
	f.mu.Lock()
	f.calls++
	err := f.errs[uid]
	record, ok := f.records[uid]
	f.mu.Unlock()

	if err != nil {
		return eas.SchemaRecord{}, err
	}
	if !ok {
		return eas.SchemaRecord{}, fmt.Errorf("no schema for %s", uid)
	}
	return record, nil
}

func (f *fakeSchemaSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func stubUID(i int) common.Hash      { return common.BigToHash(big.NewInt(int64(0x1000 + i))) }
func schemaUIDOf(k int) common.Hash { return common.BigToHash(big.NewInt(int64(0x9000 + k))) }

// uint256Payload encodes v as a single ABI word.
func uint256Payload(v uint64) []byte {
	buf := make([]byte, 32)
	new(big.Int).SetUint64(v).FillBytes(buf)
	return buf
}

func makeStubs(n, schemaCount int) []Stub {
	stubs := make([]Stub, n)
	for i := range stubs {
		stubs[i] = Stub{
			ChainID:     10,
			BlockNumber: uint64(100 + i),
			BlockTime:   uint64(1700000000 + i),
			TxHash:      common.BigToHash(big.NewInt(int64(i + 1))),
			LogIndex:    uint64(i),
			Recipient:   common.BigToAddress(big.NewInt(int64(0x100 + i))),
			Attester:    common.BigToAddress(big.NewInt(int64(0x200 + i))),
			SchemaUID:   schemaUIDOf(i % schemaCount),
			UID:         stubUID(i),
		}
	}
	return stubs
}

// fakeSources wires consistent attestation and schema data for stubs: every
// attestation carries a uint256 payload holding its stub index.
func fakeSources(stubs []Stub, schemaCount int) (*fakeAttestationSource, *fakeSchemaSource) {
	attestations := &fakeAttestationSource{
		data:   make(map[common.Hash]eas.Attestation, len(stubs)),
		errs:   make(map[common.Hash]error),
		delays: make(map[common.Hash]time.Duration),
	}
	for i, stub := range stubs {
		attestations.data[stub.UID] = eas.Attestation{
			UID:       stub.UID,
			SchemaUID: stub.SchemaUID,
			Recipient: stub.Recipient,
			Attester:  stub.Attester,
			Data:      uint256Payload(uint64(i)),
		}
	}
	schemas := &fakeSchemaSource{
		records: make(map[common.Hash]eas.SchemaRecord, schemaCount),
		errs:    make(map[common.Hash]error),
	}
	for k := 0; k < schemaCount; k++ {
		uid := schemaUIDOf(k)
		schemas.records[uid] = eas.SchemaRecord{UID: uid, Schema: "uint256 value"}
	}
	return attestations, schemas
}

func TestEnrichPreservesOrder(t *testing.T) {
	stubs := makeStubs(16, 2)
	attestations, schemas := fakeSources(stubs, 2)
	// Later stubs answer faster, so completion order inverts issue order.
	for i, stub := range stubs {
		attestations.delays[stub.UID] = time.Duration(len(stubs)-i) * time.Millisecond
	}

	enricher := NewEnricher(Config{BatchSize: 8}, attestations, schemas, nil)
	records, err := enricher.Enrich(context.Background(), stubs)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if len(records) != len(stubs) {
		t.Fatalf("expected %d records, got %d", len(stubs), len(records))
	}
	for i, record := range records {
		if record.UID != stubs[i].UID.Hex() {
			t.Fatalf("record %d out of order: got uid %s, want %s", i, record.UID, stubs[i].UID.Hex())
		}
		if got := record.Decoded["value"]; got != strconv.Itoa(i) {
			t.Errorf("record %d: expected decoded value %d, got %#v", i, i, got)
		}
	}
}

func TestEnrichDedupesSchemaFetches(t *testing.T) {
	stubs := makeStubs(250, 3)
	attestations, schemas := fakeSources(stubs, 3)

	enricher := NewEnricher(Config{BatchSize: 100}, attestations, schemas, nil)
	records, err := enricher.Enrich(context.Background(), stubs)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if len(records) != 250 {
		t.Fatalf("expected 250 records, got %d", len(records))
	}
	if got := attestations.callCount(); got != 250 {
		t.Errorf("expected 250 attestation calls, got %d", got)
	}
	if got := schemas.callCount(); got != 3 {
		t.Errorf("expected 3 schema calls, got %d", got)
	}

	// A second pass hits the schema cache.
	if _, err := enricher.Enrich(context.Background(), stubs[:10]); err != nil {
		t.Fatalf("second Enrich returned error: %v", err)
	}
	if got := schemas.callCount(); got != 3 {
		t.Errorf("expected schema cache to absorb the second pass, got %d calls", got)
	}
}

func TestEnrichDecodeFailureIsolated(t *testing.T) {
	stubs := makeStubs(3, 1)
	attestations, schemas := fakeSources(stubs, 1)
	bad := attestations.data[stubs[1].UID]
	bad.Data = []byte{0x01, 0x02}
	attestations.data[stubs[1].UID] = bad

	enricher := NewEnricher(Config{BatchSize: 10}, attestations, schemas, nil)
	records, err := enricher.Enrich(context.Background(), stubs)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if _, ok := records[1].Decoded["error"]; !ok {
		t.Errorf("expected error marker for bad payload, got %#v", records[1].Decoded)
	}
	if got := records[0].Decoded["value"]; got != "0" {
		t.Errorf("record 0 affected by sibling failure: %#v", records[0].Decoded)
	}
	if got := records[2].Decoded["value"]; got != "2" {
		t.Errorf("record 2 affected by sibling failure: %#v", records[2].Decoded)
	}
}

func TestEnrichAttestationCallFailureAborts(t *testing.T) {
	stubs := makeStubs(5, 1)
	attestations, schemas := fakeSources(stubs, 1)
	attestations.errs[stubs[2].UID] = errors.New("connection reset")

	enricher := NewEnricher(Config{BatchSize: 10}, attestations, schemas, nil)
	_, err := enricher.Enrich(context.Background(), stubs)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *CallError, got %T", err)
	}
	if callErr.Op != "getAttestation" || callErr.Key != stubs[2].UID {
		t.Errorf("unexpected call error: %+v", callErr)
	}
}

func TestEnrichSchemaCallFailureAborts(t *testing.T) {
	stubs := makeStubs(5, 1)
	attestations, schemas := fakeSources(stubs, 1)
	schemas.errs[schemaUIDOf(0)] = errors.New("execution reverted")

	enricher := NewEnricher(Config{BatchSize: 10}, attestations, schemas, nil)
	_, err := enricher.Enrich(context.Background(), stubs)
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *CallError, got %v", err)
	}
	if callErr.Op != "getSchema" {
		t.Errorf("unexpected op %q", callErr.Op)
	}
}

func TestEnrichMissingSchemaAborts(t *testing.T) {
	stubs := makeStubs(2, 1)
	attestations, schemas := fakeSources(stubs, 1)
	// The registry answers with a record for a different uid, so the join
	// cannot find the schema the attestations reference.
	schemas.records[schemaUIDOf(0)] = eas.SchemaRecord{UID: common.Hash{0xff}, Schema: "uint256 value"}

	enricher := NewEnricher(Config{BatchSize: 10}, attestations, schemas, nil)
	_, err := enricher.Enrich(context.Background(), stubs)
	var missingErr *MissingSchemaError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected *MissingSchemaError, got %v", err)
	}
	if missingErr.SchemaUID != schemaUIDOf(0) {
		t.Errorf("unexpected schema uid in error: %s", missingErr.SchemaUID)
	}
}

func TestEnrichRecordFields(t *testing.T) {
	stubs := makeStubs(1, 1)
	attestations, schemas := fakeSources(stubs, 1)

	enricher := NewEnricher(Config{BatchSize: 10}, attestations, schemas, nil)
	records, err := enricher.Enrich(context.Background(), stubs)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	record := records[0]
	if record.ChainID != 10 || record.BlockNumber != 100 || record.BlockTime != 1700000000 || record.LogIndex != 0 {
		t.Errorf("unexpected metadata: %+v", record)
	}
	if record.TxHash != stubs[0].TxHash.Hex() {
		t.Errorf("unexpected tx hash %q", record.TxHash)
	}
	if record.Attester != "0x0000000000000000000000000000000000000200" {
		t.Errorf("unexpected attester %q", record.Attester)
	}
	if record.Recipient != "0x0000000000000000000000000000000000000100" {
		t.Errorf("unexpected recipient %q", record.Recipient)
	}
	if record.Schema != "uint256 value" {
		t.Errorf("unexpected schema text %q", record.Schema)
	}
	if record.Data != "0x"+fmt.Sprintf("%064x", 0) {
		t.Errorf("unexpected raw data %q", record.Data)
	}
	if got := record.Decoded["value"]; got != "0" {
		t.Errorf("unexpected decoded payload: %#v", record.Decoded)
	}
}

func TestEnrichCallAtBlock(t *testing.T) {
	stubs := makeStubs(2, 1)
	attestations, schemas := fakeSources(stubs, 1)

	enricher := NewEnricher(Config{BatchSize: 10, CallAtBlock: true}, attestations, schemas, nil)
	if _, err := enricher.Enrich(context.Background(), stubs); err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	for _, stub := range stubs {
		block := attestations.blocks[stub.UID]
		if block == nil || block.Uint64() != stub.BlockNumber {
			t.Errorf("stub %s: expected call at block %d, got %v", stub.UID, stub.BlockNumber, block)
		}
	}
}

func TestEnrichLatestByDefault(t *testing.T) {
	stubs := makeStubs(2, 1)
	attestations, schemas := fakeSources(stubs, 1)

	enricher := NewEnricher(Config{BatchSize: 10}, attestations, schemas, nil)
	if _, err := enricher.Enrich(context.Background(), stubs); err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	for _, stub := range stubs {
		if block := attestations.blocks[stub.UID]; block != nil {
			t.Errorf("stub %s: expected latest-state call, got block %v", stub.UID, block)
		}
	}
}

func TestEnrichEmptyInput(t *testing.T) {
	attestations, schemas := fakeSources(nil, 1)
	enricher := NewEnricher(Config{}, attestations, schemas, nil)

	records, err := enricher.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
	if attestations.callCount() != 0 || schemas.callCount() != 0 {
		t.Error("expected no contract calls for empty input")
	}
}

func TestFanOutWaves(t *testing.T) {
	keys := make([]int, 25)
	for i := range keys {
		keys[i] = i
	}

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	results, err := fanOut(context.Background(), keys, 10, func(_ context.Context, k int) (int, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return k * 2, nil
	})
	if err != nil {
		t.Fatalf("fanOut returned error: %v", err)
	}
	for i, v := range results {
		if v != i*2 {
			t.Fatalf("result %d out of order: got %d", i, v)
		}
	}
	if maxInFlight > 10 {
		t.Errorf("expected at most 10 concurrent calls, saw %d", maxInFlight)
	}
}

func TestFanOutCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fanOut(ctx, []int{1, 2, 3}, 2, func(context.Context, int) (int, error) {
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
