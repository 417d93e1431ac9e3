// Command facetdemo is a thin demonstration program for the facetstore
// library: it appends one "Incremented" event to a "counters" facet backed
// by sqlite and prints the resulting state. Not part of the library's core.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/tomyedwab/facetstore/facet"
	"github.com/tomyedwab/facetstore/processor"
	"github.com/tomyedwab/facetstore/store"
	"github.com/tomyedwab/facetstore/store/sqlitestore"
)

type counterState struct {
	Total int `json:"total"`
}

// counterCodec encodes events as {"amount": N} and state as {"total": N}.
type counterCodec struct{}

func (counterCodec) EncodeEvent(eventType string, payload any) ([]byte, error) {
	return json.Marshal(payload)
}

func (counterCodec) DecodeEvent(eventType string, payload []byte) (any, error) {
	var m map[string]int
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (counterCodec) EncodeState(state any) ([]byte, error) {
	return json.Marshal(state)
}

func (counterCodec) DecodeState(payload []byte) (any, error) {
	var s counterState
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// incrementRule applies an Incremented event and publishes a Milestone
// outbound event every time the running total crosses a multiple of 10.
func incrementRule(in processor.ReducerInput) any {
	s, _ := in.State.(counterState)
	amount := in.Current.(map[string]int)["amount"]
	before := s.Total
	s.Total += amount
	if before/10 != s.Total/10 {
		in.Publish("Milestone", map[string]int{"total": s.Total})
	}
	return s
}

func main() {
	dsn := flag.String("db", "facetdemo.db", "sqlite data source for the demo facet store")
	id := flag.String("id", "", "entity id to operate on (a new one is generated if empty)")
	amount := flag.Int("amount", 1, "amount to increment the counter by")
	flag.Parse()

	backend, err := sqlitestore.Open(*dsn)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	counters := facet.New(facet.Config{
		FacetName: "counters",
		Store:     store.New("counters", backend),
		Processor: processor.New(processor.Rules{"Incremented": incrementRule}, func() any {
			return counterState{}
		}),
		Codec: counterCodec{},
	})

	entityID := *id
	if entityID == "" {
		entityID = uuid.NewString()
		fmt.Printf("Generated new entity id: %s\n", entityID)
	}

	ctx := context.Background()
	out, err := counters.Append(ctx, entityID, processor.Event{
		Type:    "Incremented",
		Payload: map[string]int{"amount": *amount},
	})
	if err != nil {
		log.Fatalf("append failed: %v", err)
	}

	fmt.Printf("counter %s is now at sequence %d: %+v\n", entityID, out.Seq, out.State)
	for _, e := range out.NewOutboundEvents {
		fmt.Printf("  -> queued outbound event %s: %+v\n", e.Type, e.Payload)
	}
}
