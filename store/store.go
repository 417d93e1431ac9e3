// Package store adapts the facet orchestrator's needs — getState,
// getRecords, putTransaction — onto a generic transactional composite-key
// backend, the way applib/database.Database sits between event handlers and
// a raw *sqlx.DB. It owns nothing about storage itself; see package
// store/sqlitestore for a concrete Backend.
package store

import (
	"context"

	"github.com/tomyedwab/facetstore/ferrors"
	"github.com/tomyedwab/facetstore/record"
)

// MaxTransactionItems is the per-write item ceiling honored by
// DynamoDB-compatible backends (state row + inbound rows + outbound rows).
const MaxTransactionItems = 25

// Backend is the storage primitive the facet store is built on: composite
// primary keys (partition + sort), a point get, a range scan by partition,
// and one atomic multi-item transactional write with a per-item conditional
// predicate. An implementation must reject a PutTransaction whose state row
// condition (state absent, or its current sequence equals previousSeq)
// fails, and must reject any inbound/outbound row that already exists,
// without partially applying the write.
type Backend interface {
	// GetState returns the state row at partitionKey, or nil if absent.
	GetState(ctx context.Context, partitionKey string) (*record.Record, error)
	// GetRecords returns every row under partitionKey, in unspecified order.
	GetRecords(ctx context.Context, partitionKey string) ([]record.Record, error)
	// PutTransaction atomically writes state plus every row in inbound and
	// outbound. previousSeq gates the state row's conditional predicate.
	// Returns *ferrors.ConcurrencyError if the predicate fails.
	PutTransaction(ctx context.Context, state record.Record, previousSeq int64, inbound, outbound []record.Record) error
}

// Store validates a facet's writes against its own records before
// dispatching to a Backend, and scopes reads to one facet by building the
// partition key from a bare entity id.
type Store struct {
	FacetName string
	Backend   Backend
}

// New builds a Store scoped to facetName.
func New(facetName string, backend Backend) *Store {
	return &Store{FacetName: facetName, Backend: backend}
}

// GetState returns the state row for id, or nil if the entity doesn't exist.
func (s *Store) GetState(ctx context.Context, id string) (*record.Record, error) {
	r, err := s.Backend.GetState(ctx, record.PartitionKey(s.FacetName, id))
	if err != nil {
		return nil, &ferrors.BackendError{Op: "GetState", Err: err}
	}
	return r, nil
}

// GetRecords returns every row for id: at most one state row, plus inbound
// and outbound rows in unspecified order. Callers that need inbound order
// must sort by Sequence themselves (see package facet's Recalculate).
func (s *Store) GetRecords(ctx context.Context, id string) ([]record.Record, error) {
	rs, err := s.Backend.GetRecords(ctx, record.PartitionKey(s.FacetName, id))
	if err != nil {
		return nil, &ferrors.BackendError{Op: "GetRecords", Err: err}
	}
	return rs, nil
}

// PutTransaction validates state, inbound and outbound against this
// facet's shape and the backend's item ceiling, then dispatches one atomic
// transactional write. A validation failure is synchronous and signals a
// programmer error; it never reaches the backend.
func (s *Store) PutTransaction(ctx context.Context, state record.Record, previousSeq int64, inbound, outbound []record.Record) error {
	if err := s.validate(state, inbound, outbound); err != nil {
		return err
	}

	err := s.Backend.PutTransaction(ctx, state, previousSeq, inbound, outbound)
	if err != nil {
		if isConcurrencyErr(err) {
			return err
		}
		return &ferrors.BackendError{Op: "PutTransaction", Err: err}
	}
	return nil
}

func isConcurrencyErr(err error) bool {
	_, ok := err.(*ferrors.ConcurrencyError)
	return ok
}
