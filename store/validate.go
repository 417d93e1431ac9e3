package store

import (
	"fmt"

	"github.com/tomyedwab/facetstore/ferrors"
	"github.com/tomyedwab/facetstore/record"
)

// validate enforces I1/I6 shape constraints and the transaction-size
// ceiling before any row reaches the backend: the state row must be a
// StateRecord of this facet, every inbound row must be an InboundRecord of
// this facet, every outbound row must be an OutboundRecord of this facet.
func (s *Store) validate(state record.Record, inbound, outbound []record.Record) error {
	if !record.IsState(state) {
		return &ferrors.ValidationError{Reason: fmt.Sprintf("state row has sort key %q, want %q", state.SortKey, record.SortKeyState)}
	}
	if !record.IsFacet(s.FacetName, state) {
		return &ferrors.ValidationError{Reason: fmt.Sprintf("state row belongs to facet %q, want %q", state.Facet, s.FacetName)}
	}

	for i, r := range inbound {
		if !record.IsInbound(r) {
			return &ferrors.ValidationError{Reason: fmt.Sprintf("inbound[%d] has sort key %q, not an inbound row", i, r.SortKey)}
		}
		if !record.IsFacet(s.FacetName, r) {
			return &ferrors.ValidationError{Reason: fmt.Sprintf("inbound[%d] belongs to facet %q, want %q", i, r.Facet, s.FacetName)}
		}
	}

	for i, r := range outbound {
		if !record.IsOutbound(r) {
			return &ferrors.ValidationError{Reason: fmt.Sprintf("outbound[%d] has sort key %q, not an outbound row", i, r.SortKey)}
		}
		if !record.IsFacet(s.FacetName, r) {
			return &ferrors.ValidationError{Reason: fmt.Sprintf("outbound[%d] belongs to facet %q, want %q", i, r.Facet, s.FacetName)}
		}
	}

	total := 1 + len(inbound) + len(outbound)
	if total > MaxTransactionItems {
		return &ferrors.CapacityError{Count: total, Limit: MaxTransactionItems}
	}

	return nil
}
