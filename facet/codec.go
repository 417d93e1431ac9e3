package facet

import "encoding/json"

// JSONCodec is the default EventCodec: it marshals/unmarshals payloads as
// JSON, decoding into map[string]any when the caller doesn't need a typed
// value back. Facets that want typed payloads (structs instead of maps)
// should supply their own EventCodec that unmarshals into the concrete Go
// type each rule expects, the way AddEventHandler in
// applib/database/database.go unmarshals into the registered T per event
// type.
type JSONCodec struct{}

func (JSONCodec) EncodeEvent(eventType string, payload any) ([]byte, error) {
	if payload == nil {
		return []byte("null"), nil
	}
	return json.Marshal(payload)
}

func (JSONCodec) DecodeEvent(eventType string, payload []byte) (any, error) {
	var v map[string]any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (JSONCodec) EncodeState(state any) ([]byte, error) {
	if state == nil {
		return []byte("null"), nil
	}
	return json.Marshal(state)
}

func (JSONCodec) DecodeState(payload []byte) (any, error) {
	var v map[string]any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}
