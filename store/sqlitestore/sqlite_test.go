package sqlitestore

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomyedwab/facetstore/ferrors"
	"github.com/tomyedwab/facetstore/record"
)

// setupTestBackend creates a temporary test database, mirroring
// nexushub/audit/logger_test.go's setupTestDB helper.
func setupTestBackend(t *testing.T) *Backend {
	tmpDir := t.TempDir()
	dbPath := path.Join(tmpDir, "test_facets.db")
	db := sqlx.MustConnect("sqlite3", dbPath)
	t.Cleanup(func() { db.Close() })

	backend, err := New(db)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return backend
}

func TestGetStateReturnsNilForMissingEntity(t *testing.T) {
	backend := setupTestBackend(t)
	got, err := backend.GetState(context.Background(), "widgets/abc")
	if err != nil {
		t.Fatalf("GetState returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("GetState = %+v, want nil", got)
	}
}

func TestPutTransactionFreshEntity(t *testing.T) {
	backend := setupTestBackend(t)
	now := time.Now()

	state := record.NewState("widgets", "abc", 1, []byte(`{"a":1}`), now)
	inbound := []record.Record{record.NewInbound("widgets", "abc", 1, "T", []byte(`{}`), now)}

	err := backend.PutTransaction(context.Background(), state, 0, inbound, nil)
	if err != nil {
		t.Fatalf("PutTransaction returned error: %v", err)
	}

	got, err := backend.GetState(context.Background(), "widgets/abc")
	if err != nil {
		t.Fatalf("GetState returned error: %v", err)
	}
	if got == nil || got.Sequence != 1 {
		t.Fatalf("GetState = %+v, want sequence 1", got)
	}

	records, err := backend.GetRecords(context.Background(), "widgets/abc")
	if err != nil {
		t.Fatalf("GetRecords returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("GetRecords returned %d rows, want 2", len(records))
	}
}

func TestPutTransactionRejectsStaleSeq(t *testing.T) {
	backend := setupTestBackend(t)
	now := time.Now()

	state1 := record.NewState("widgets", "abc", 1, []byte(`{}`), now)
	if err := backend.PutTransaction(context.Background(), state1, 0, nil, nil); err != nil {
		t.Fatalf("first PutTransaction returned error: %v", err)
	}

	state2 := record.NewState("widgets", "abc", 2, []byte(`{}`), now)
	err := backend.PutTransaction(context.Background(), state2, 0, nil, nil)
	if _, ok := err.(*ferrors.ConcurrencyError); !ok {
		t.Fatalf("err = %v, want *ferrors.ConcurrencyError", err)
	}

	// State must be unchanged after the failed write.
	got, _ := backend.GetState(context.Background(), "widgets/abc")
	if got.Sequence != 1 {
		t.Fatalf("state sequence = %d after failed write, want unchanged 1", got.Sequence)
	}
}

func TestPutTransactionRejectsDuplicateInboundSequence(t *testing.T) {
	backend := setupTestBackend(t)
	now := time.Now()

	state1 := record.NewState("widgets", "abc", 1, []byte(`{}`), now)
	inbound1 := []record.Record{record.NewInbound("widgets", "abc", 1, "T", []byte(`{}`), now)}
	if err := backend.PutTransaction(context.Background(), state1, 0, inbound1, nil); err != nil {
		t.Fatalf("first PutTransaction returned error: %v", err)
	}

	// Same inbound sequence again must be rejected, even though the state
	// row's own predicate (stored seq 1 == previousSeq 1) holds.
	state2 := record.NewState("widgets", "abc", 1, []byte(`{}`), now)
	err := backend.PutTransaction(context.Background(), state2, 1, inbound1, nil)
	if _, ok := err.(*ferrors.ConcurrencyError); !ok {
		t.Fatalf("err = %v, want *ferrors.ConcurrencyError", err)
	}
}

func TestPutTransactionWritesOutboundRowsAtomicallyWithState(t *testing.T) {
	backend := setupTestBackend(t)
	now := time.Now()

	state := record.NewState("widgets", "abc", 1, []byte(`{}`), now)
	outbound := []record.Record{record.NewOutbound("widgets", "abc", 1, 0, "Notified", []byte(`{}`), now)}

	if err := backend.PutTransaction(context.Background(), state, 0, nil, outbound); err != nil {
		t.Fatalf("PutTransaction returned error: %v", err)
	}

	records, err := backend.GetRecords(context.Background(), "widgets/abc")
	if err != nil {
		t.Fatalf("GetRecords returned error: %v", err)
	}

	foundOutbound := false
	for _, r := range records {
		if record.IsOutbound(r) {
			foundOutbound = true
		}
	}
	if !foundOutbound {
		t.Fatal("outbound row missing after successful commit")
	}
}
