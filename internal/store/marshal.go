package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// marshalValue converts a record or index bucket to the bytes stored in a
// table row. HTML escaping is disabled so stored text stays byte-identical
// to what the caller wrote.
func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// unmarshalValue decodes a stored row into T. Undecodable bytes are a
// CorruptRecord error naming the table and key of the row.
func unmarshalValue[T any](table, key string, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, &Error{
			Code:  CodeCorruptRecord,
			Op:    "decode",
			Table: table,
			Key:   key,
			Err:   err,
		}
	}
	return v, nil
}
