// Package processor implements the pure reduction over a facet's ordered
// event log: given a starting state and the past and new inbound events, it
// produces the next state plus the outbound events any rule published along
// the way, split into those that replay past history and those that are
// genuinely new.
//
// A Processor never touches a store. It generalizes the dispatch-by-type
// pattern in database/events.ParseEvent from "decode one event" to "fold
// the whole log", keyed by the same event-type string.
package processor

// Event is one inbound or outbound event. Payload is left as any: the
// concrete shape is established by whichever Reducer is registered for
// Type, the same way a Reducer table entry knows what to json.Unmarshal a
// wire payload into.
type Event struct {
	Type    string
	Payload any
}

// ReducerInput is everything a Reducer sees for one event application.
type ReducerInput struct {
	// State is the accumulator before this event is applied.
	State any
	// Current is the payload of the event being applied.
	Current any

	PastInboundEvents []Event
	NewInboundEvents  []Event
	// All is PastInboundEvents followed by NewInboundEvents.
	All []Event
	// CurrentIndex indexes into All.
	CurrentIndex int
	// StateIndex is len(PastInboundEvents): the boundary between past and
	// new within All.
	StateIndex int

	// Publish emits an outbound event from within the reducer. Whether it
	// lands in PastOutboundEvents or NewOutboundEvents depends on whether
	// CurrentIndex < StateIndex at the time of the call.
	Publish func(eventType string, payload any)
}

// Reducer is a pure function from (state, event) to next state. It must not
// perform I/O. Returning the same State it was given is legal.
type Reducer func(in ReducerInput) any

// Rules is a dispatch table keyed by event type. An event whose type has no
// entry is skipped: no state change, no publish. This is deliberate — it
// lets older inbound rows stay replayable after rules evolve and new event
// types are introduced.
type Rules map[string]Reducer

// Result is the outcome of one Reduce call.
type Result struct {
	State              any
	PastOutboundEvents []Event
	NewOutboundEvents  []Event
}

// Processor holds the rule table and the zero-state factory for one facet.
type Processor struct {
	Rules       Rules
	Initializer func() any
}

// New builds a Processor. initializer may be nil, in which case a nil state
// is used as the zero value (callers whose T is a pointer struct type
// typically want this; callers whose T is a value type should pass an
// explicit initializer).
func New(rules Rules, initializer func() any) *Processor {
	return &Processor{Rules: rules, Initializer: initializer}
}

// Reduce folds pastInboundEvents then newInboundEvents over state, in
// order. state == nil means "use the initializer". Reduce is pure: two
// calls with equal arguments produce equal results.
func (p *Processor) Reduce(state any, pastInboundEvents, newInboundEvents []Event) Result {
	if state == nil && p.Initializer != nil {
		state = p.Initializer()
	}

	all := make([]Event, 0, len(pastInboundEvents)+len(newInboundEvents))
	all = append(all, pastInboundEvents...)
	all = append(all, newInboundEvents...)

	stateIndex := len(pastInboundEvents)
	result := Result{
		State:              state,
		PastOutboundEvents: []Event{},
		NewOutboundEvents:  []Event{},
	}

	for i, e := range all {
		reduce, ok := p.Rules[e.Type]
		if !ok {
			continue
		}

		currentIndex := i
		publish := func(eventType string, payload any) {
			out := Event{Type: eventType, Payload: payload}
			if currentIndex < stateIndex {
				result.PastOutboundEvents = append(result.PastOutboundEvents, out)
			} else {
				result.NewOutboundEvents = append(result.NewOutboundEvents, out)
			}
		}

		result.State = reduce(ReducerInput{
			State:             result.State,
			Current:           e.Payload,
			PastInboundEvents: pastInboundEvents,
			NewInboundEvents:  newInboundEvents,
			All:               all,
			CurrentIndex:      currentIndex,
			StateIndex:        stateIndex,
			Publish:           publish,
		})
	}

	return result
}
