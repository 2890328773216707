package cms

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape records which upstream form a collection arrived in.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeArray
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "empty"
	}
}

// Envelope is a collection normalized to an item list. Items is never nil.
type Envelope struct {
	Shape Shape
	Items []json.RawMessage
}

// Len returns the number of items.
func (e Envelope) Len() int { return len(e.Items) }

// MarshalJSON renders the envelope as a bare array so normalizing it again yields the same items.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if len(e.Items) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(e.Items)
}

// Normalize resolves a CMS body into an Envelope. A bare array and an object with a results
// array both yield their items. Any other valid JSON yields an empty envelope. Invalid JSON
// is ErrMalformedResponse.
func Normalize(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return emptyEnvelope(), nil
	}
	if !json.Valid(trimmed) {
		return Envelope{}, ErrMalformedResponse
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return Envelope{Shape: ShapeArray, Items: nonNil(items)}, nil
	case '{':
		var wrapper struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return emptyEnvelope(), nil
		}
		results := bytes.TrimSpace(wrapper.Results)
		if len(results) == 0 || results[0] != '[' {
			return emptyEnvelope(), nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(results, &items); err != nil {
			return emptyEnvelope(), nil
		}
		return Envelope{Shape: ShapeWrapped, Items: nonNil(items)}, nil
	}
	return emptyEnvelope(), nil
}

// normalizeOne accepts a detail body: a bare object, or anything Normalize accepts.
func normalizeOne(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err == nil {
			if _, wrapped := fields["results"]; !wrapped {
				return json.RawMessage(trimmed), nil
			}
		}
	}
	env, err := Normalize(trimmed)
	if err != nil {
		return nil, err
	}
	if env.Len() == 0 {
		return nil, ErrNotFound
	}
	return env.Items[0], nil
}

// Decode maps envelope items onto T. Items that do not decode are skipped.
func Decode[T any](env Envelope) []T {
	out := make([]T, 0, len(env.Items))
	for _, raw := range env.Items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}

func emptyEnvelope() Envelope {
	return Envelope{Shape: ShapeEmpty, Items: []json.RawMessage{}}
}

func nonNil(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}
