package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedKV is one member of a JSON object.
type OrderedKV[T any] struct {
	Key   string
	Value T
}

// DecodeOrdered returns the members of a JSON object in document order.
// An empty JSON array is accepted as an empty object.
func DecodeOrdered(data []byte) ([]OrderedKV[json.RawMessage], error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("expected json object, got %v", tok)
	}
	if delim == '[' {
		if dec.More() {
			return nil, fmt.Errorf("expected json object, got non-empty array")
		}
		return nil, nil
	}
	if delim != '{' {
		return nil, fmt.Errorf("expected json object, got %v", delim)
	}

	var pairs []OrderedKV[json.RawMessage]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		err = dec.Decode(&raw)
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, OrderedKV[json.RawMessage]{
			Key:   key,
			Value: raw,
		})
	}

	_, err = dec.Token()
	if err != nil {
		return nil, err
	}

	return pairs, nil
}
