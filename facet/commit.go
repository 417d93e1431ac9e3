package facet

import (
	"context"
	"time"

	"github.com/tomyedwab/facetstore/ferrors"
	"github.com/tomyedwab/facetstore/processor"
	"github.com/tomyedwab/facetstore/record"
)

// commit is the shared write path for Append, AppendTo and Recalculate. It
// assigns sequences to newEvents, builds the state/inbound/outbound rows
// for one `now` timestamp, and issues the conditional transactional write.
func (f *Facet) commit(ctx context.Context, id string, result processor.Result, previousSeq int64, newEvents []processor.Event) (*ChangeOutput, error) {
	now := time.Now()
	stateSeq := previousSeq + int64(len(newEvents))

	inboundRecords := make([]record.Record, 0, len(newEvents))
	for i, e := range newEvents {
		seq := previousSeq + 1 + int64(i)
		payload, err := f.codec.EncodeEvent(e.Type, e.Payload)
		if err != nil {
			return nil, &ferrors.SerializationError{Op: "EncodeEvent", Err: err}
		}
		inboundRecords = append(inboundRecords, record.NewInbound(f.facetName, id, seq, e.Type, payload, now))
	}

	outboundRecords := make([]record.Record, 0, len(result.NewOutboundEvents))
	for i, e := range result.NewOutboundEvents {
		payload, err := f.codec.EncodeEvent(e.Type, e.Payload)
		if err != nil {
			return nil, &ferrors.SerializationError{Op: "EncodeEvent", Err: err}
		}
		outboundRecords = append(outboundRecords, record.NewOutbound(f.facetName, id, stateSeq, i, e.Type, payload, now))
	}

	statePayload, err := f.codec.EncodeState(result.State)
	if err != nil {
		return nil, &ferrors.SerializationError{Op: "EncodeState", Err: err}
	}
	stateRecord := record.NewState(f.facetName, id, stateSeq, statePayload, now)

	if err := f.store.PutTransaction(ctx, stateRecord, previousSeq, inboundRecords, outboundRecords); err != nil {
		return nil, err
	}

	return &ChangeOutput{
		Seq:                stateSeq,
		State:              result.State,
		PastOutboundEvents: result.PastOutboundEvents,
		NewOutboundEvents:  result.NewOutboundEvents,
	}, nil
}
