// Package record defines the on-disk shape of a facet store row and the
// pure constructors that build one. A Record is the only thing that ever
// crosses the store boundary: state, inbound events and outbound events are
// all the same shape, discriminated by a sort-key prefix.
package record

import (
	"fmt"
	"strings"
	"time"
)

// Sort-key prefixes. The type name also appears inside the sort key so a
// backend can range-scan by prefix alone without decoding the payload.
const (
	SortKeyState    = "STATE"
	prefixInbound   = "INBOUND"
	prefixOutbound  = "OUTBOUND"
	dateLayout      = "2006-01-02T15:04:05.000Z"
)

// Record is one row under a facet entity's partition key
// ("<facet>/<id>"). Payload is opaque to this package: callers are
// responsible for encoding/decoding it (see package processor and the
// codec helpers in package facet).
type Record struct {
	PartitionKey string // _id: "<facet>/<id>"
	SortKey      string // _rng: STATE | INBOUND/<type>/<seq> | OUTBOUND/<type>/<seq>/<index>
	Facet        string // _facet
	Type         string // _typ: event or state type name
	Sequence     int64  // _seq
	TimestampMs  int64  // _ts
	Date         string // _date, ISO-8601
	Payload      []byte // _itm, JSON-encoded
}

// NewState builds the unique state row for an entity at the given sequence.
func NewState(facet, id string, seq int64, payload []byte, now time.Time) Record {
	return Record{
		PartitionKey: partitionKey(facet, id),
		SortKey:      SortKeyState,
		Facet:        facet,
		Type:         facet,
		Sequence:     seq,
		TimestampMs:  now.UnixMilli(),
		Date:         now.UTC().Format(dateLayout),
		Payload:      payload,
	}
}

// NewInbound builds one accepted-inbound-event row.
func NewInbound(facet, id string, seq int64, eventType string, payload []byte, now time.Time) Record {
	return Record{
		PartitionKey: partitionKey(facet, id),
		SortKey:      fmt.Sprintf("%s/%s/%d", prefixInbound, eventType, seq),
		Facet:        facet,
		Type:         eventType,
		Sequence:     seq,
		TimestampMs:  now.UnixMilli(),
		Date:         now.UTC().Format(dateLayout),
		Payload:      payload,
	}
}

// NewOutbound builds one outbound-event row emitted during the commit at
// sequence seq. index disambiguates multiple outbounds from a single
// commit and must be assigned starting at 0, rising.
func NewOutbound(facet, id string, seq int64, index int, eventType string, payload []byte, now time.Time) Record {
	return Record{
		PartitionKey: partitionKey(facet, id),
		SortKey:      fmt.Sprintf("%s/%s/%d/%d", prefixOutbound, eventType, seq, index),
		Facet:        facet,
		Type:         eventType,
		Sequence:     seq,
		TimestampMs:  now.UnixMilli(),
		Date:         now.UTC().Format(dateLayout),
		Payload:      payload,
	}
}

func partitionKey(facet, id string) string {
	return facet + "/" + id
}

// PartitionKey builds the "<facet>/<id>" partition key a Backend sees. It is
// exported so callers that only hold facet+id (not a Record) — the store
// adapter's GetState/GetRecords — can address the backend directly.
func PartitionKey(facet, id string) string {
	return partitionKey(facet, id)
}

// IsState reports whether r is the state row.
func IsState(r Record) bool {
	return r.SortKey == SortKeyState
}

// IsInbound reports whether r is an inbound-event row.
func IsInbound(r Record) bool {
	return strings.HasPrefix(r.SortKey, prefixInbound+"/")
}

// IsOutbound reports whether r is an outbound-event row.
func IsOutbound(r Record) bool {
	return strings.HasPrefix(r.SortKey, prefixOutbound+"/")
}

// IsFacet reports whether r belongs to the named facet.
func IsFacet(name string, r Record) bool {
	return r.Facet == name
}
