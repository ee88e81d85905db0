package store

import (
	"encoding/json"
	"fmt"
)

// Normalize converts an arbitrary value into a JSON compatible Document.
func Normalize(value any) (Document, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("store: normalize document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Encode is Normalize for callers that hold typed records.
func Encode[T any](value T) (Document, error) {
	return Normalize(value)
}

// Decode maps doc onto T using its JSON field names.
func Decode[T any](doc Document) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("store: encode document: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("store: decode %s: %w", doc.ID(), err)
	}
	return out, nil
}

// DecodeAll decodes docs in order, stopping at the first failure.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Clone deep copies doc through a JSON round trip. Values that cannot be
// encoded are dropped, so callers only clone normalized documents.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out, err := Normalize(doc)
	if err != nil {
		return Document{}
	}
	return out
}

// CloneAll deep copies a result set.
func CloneAll(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, doc := range docs {
		out[i] = Clone(doc)
	}
	return out
}
