// Package facet implements the orchestrator that composes a processor.Processor
// and a store.Store into the operations callers actually use: Get, Append,
// AppendTo and Recalculate. It converts between domain events and on-disk
// record.Record rows, assigns sequence numbers, and issues the conditional
// commit. Generalizes applib/database.Database's "one event log with many
// handlers" shape into "one store per facet with one reducer".
package facet

import (
	"context"

	"github.com/tomyedwab/facetstore/ferrors"
	"github.com/tomyedwab/facetstore/processor"
	"github.com/tomyedwab/facetstore/record"
	"github.com/tomyedwab/facetstore/store"
)

// EventCodec converts between a domain event's in-memory payload and its
// on-disk JSON bytes. New uses JSONCodec when Config.Codec is nil.
type EventCodec interface {
	EncodeEvent(eventType string, payload any) ([]byte, error)
	DecodeEvent(eventType string, payload []byte) (any, error)
	EncodeState(state any) ([]byte, error)
	DecodeState(payload []byte) (any, error)
}

// Config configures one Facet.
type Config struct {
	FacetName string
	Store     *store.Store
	Processor *processor.Processor
	Codec     EventCodec // defaults to JSONCodec{} if nil
}

// Facet is the orchestrator for one named facet of entities.
type Facet struct {
	facetName string
	store     *store.Store
	processor *processor.Processor
	codec     EventCodec
}

// New builds a Facet from cfg.
func New(cfg Config) *Facet {
	codec := cfg.Codec
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Facet{
		facetName: cfg.FacetName,
		store:     cfg.Store,
		processor: cfg.Processor,
		codec:     codec,
	}
}

// Item is the result of a successful Get: the decoded state plus the
// record it was read from (sequence, timestamp).
type Item struct {
	Record record.Record
	State  any
}

// Get point-reads the state row for id. Returns nil, nil if the entity
// doesn't exist.
func (f *Facet) Get(ctx context.Context, id string) (*Item, error) {
	r, err := f.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	state, err := f.codec.DecodeState(r.Payload)
	if err != nil {
		return nil, &ferrors.SerializationError{Op: "DecodeState", Err: err}
	}
	return &Item{Record: *r, State: state}, nil
}

// ChangeOutput is the result of a successful Append, AppendTo or
// Recalculate.
type ChangeOutput struct {
	Seq                int64
	State              any
	PastOutboundEvents []processor.Event
	NewOutboundEvents  []processor.Event
}

// Append reads the current state, reduces it over newEvents, and commits.
func (f *Facet) Append(ctx context.Context, id string, newEvents ...processor.Event) (*ChangeOutput, error) {
	r, err := f.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}

	var priorState any
	var priorSeq int64
	if r != nil {
		priorSeq = r.Sequence
		priorState, err = f.codec.DecodeState(r.Payload)
		if err != nil {
			return nil, &ferrors.SerializationError{Op: "DecodeState", Err: err}
		}
	}

	result := f.processor.Reduce(priorState, nil, newEvents)
	return f.commit(ctx, id, result, priorSeq, newEvents)
}

// AppendTo skips the read: it trusts a caller-supplied state and sequence,
// typically from a prior Get. A stale seq surfaces only as a
// *ferrors.ConcurrencyError at commit time; it cannot corrupt the entity.
func (f *Facet) AppendTo(ctx context.Context, id string, state any, seq int64, newEvents ...processor.Event) (*ChangeOutput, error) {
	result := f.processor.Reduce(state, nil, newEvents)
	return f.commit(ctx, id, result, seq, newEvents)
}

// Recalculate range-scans every record for id, sorts the inbound log by
// sequence, and re-derives state from scratch (null initial state) before
// folding in newEvents. Useful for audits and for rebuilding an outbound
// timeline from history.
func (f *Facet) Recalculate(ctx context.Context, id string, newEvents ...processor.Event) (*ChangeOutput, error) {
	records, err := f.store.GetRecords(ctx, id)
	if err != nil {
		return nil, err
	}

	var stateRow *record.Record
	inboundRows := make([]record.Record, 0, len(records))
	for i := range records {
		r := records[i]
		switch {
		case record.IsState(r):
			stateRow = &r
		case record.IsInbound(r):
			inboundRows = append(inboundRows, r)
		}
		// Outbound rows and anything matching neither prefix (a stray row
		// of unrecognized shape) are ignored for replay purposes.
	}

	sortInboundBySequence(inboundRows)

	pastEvents := make([]processor.Event, 0, len(inboundRows))
	for _, r := range inboundRows {
		payload, err := f.codec.DecodeEvent(r.Type, r.Payload)
		if err != nil {
			return nil, &ferrors.SerializationError{Op: "DecodeEvent", Err: err}
		}
		pastEvents = append(pastEvents, processor.Event{Type: r.Type, Payload: payload})
	}

	var priorSeq int64
	if stateRow != nil {
		priorSeq = stateRow.Sequence
	}

	result := f.processor.Reduce(nil, pastEvents, newEvents)
	return f.commit(ctx, id, result, priorSeq, newEvents)
}

// sortInboundBySequence sorts ascending by Sequence, stable, with ties
// broken by sort-key lexicographic order for determinism.
func sortInboundBySequence(rows []record.Record) {
	insertionSort(rows, func(a, b record.Record) bool {
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		return a.SortKey < b.SortKey
	})
}

// insertionSort is a small stable sort: the inbound logs this orchestrates
// are bounded by the 25-item transaction ceiling times however many commits
// an entity has seen, never large enough to need anything fancier, and a
// hand-rolled stable sort avoids pulling in sort.Slice's reflection for
// what is always a small, already-almost-sorted list.
func insertionSort(rows []record.Record, less func(a, b record.Record) bool) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && less(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}
