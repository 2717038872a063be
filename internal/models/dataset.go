package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// DecodeEntityDataset parses the entity dataset, a JSON array of records
func DecodeEntityDataset(data []byte) ([]RawEntityRecord, error) {
	var records []RawEntityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode entity dataset: %w", err)
	}
	return records, nil
}

// DecodeYearDataset parses a year-keyed JSON object without losing key order.
// A repeated year keeps its first position and takes the last value.
func DecodeYearDataset(data []byte) (RawYearDataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to decode year dataset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to decode year dataset: expected object, got %v", tok)
	}

	var dataset RawYearDataset
	index := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to decode year label: %w", err)
		}
		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to decode year label: unexpected token %v", tok)
		}

		var fields map[string]float64
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("failed to decode year %q: %w", label, err)
		}

		if i, seen := index[label]; seen {
			dataset[i].Fields = fields
			continue
		}
		index[label] = len(dataset)
		dataset = append(dataset, RawYearEntry{Label: label, Fields: fields})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to decode year dataset: %w", err)
	}

	return dataset, nil
}
