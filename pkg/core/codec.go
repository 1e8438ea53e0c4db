package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// decodeRecords parses the slot payload: a JSON array of records.
// Blank payloads and JSON null decode to an empty collection. Array elements
// that are not records are kept verbatim and counted in unreadable; they stay
// in place through mutations and are written back unchanged.
func decodeRecords(raw string) (records []Record, unreadable int, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return []Record{}, 0, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
		return nil, 0, fmt.Errorf("invalid slot payload: %w", err)
	}

	records = make([]Record, 0, len(elems))
	for _, elem := range elems {
		var r Record
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) || json.Unmarshal(elem, &r) != nil {
			records = append(records, Record{raw: elem})
			unreadable++
			continue
		}
		records = append(records, r)
	}
	return records, unreadable, nil
}

// encodeRecords renders the collection as a compact JSON array. HTML is not
// escaped so snapshots stay readable for other clients of the slot.
func encodeRecords(records []Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if r.raw != nil {
			if err := json.Compact(&buf, r.raw); err != nil {
				return "", fmt.Errorf("failed to encode unreadable record: %w", err)
			}
			continue
		}
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("failed to encode records: %w", err)
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// readable drops the records kept only to be written back.
func readable(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.raw == nil {
			out = append(out, r)
		}
	}
	return out
}
