// Package core holds the record model and the Store that persists it.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a record.
type Status string

const (
	StatusActive Status = "Active"
)

// NotAvailable is stored for detail fields the source document did not provide.
const NotAvailable = "N/A"

// Detail field names, shared by the extractor and the persisted shape.
const (
	FieldPrice       = "price"
	FieldDuration    = "duration"
	FieldLocation    = "location"
	FieldDescription = "description"

	FieldHotelName     = "hotelName"
	FieldHotelRating   = "hotelRating"
	FieldHotelLocation = "hotelLocation"
	FieldAmenities     = "amenities"
)

// PackageFields and HotelFields list the detail keys in their persisted order.
var (
	PackageFields = []string{FieldPrice, FieldDuration, FieldLocation, FieldDescription}
	HotelFields   = []string{FieldHotelName, FieldHotelRating, FieldHotelLocation, FieldAmenities}
)

// Details maps a field name to the value extracted for it.
type Details map[string]string

// UnmarshalJSON accepts numbers and booleans as values, keeping their JSON text.
// JSON null becomes an empty string.
func (d *Details) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		*d = nil
		return nil
	}

	out := make(Details, len(fields))
	for k, v := range fields {
		v = bytes.TrimSpace(v)
		switch {
		case len(v) == 0 || bytes.Equal(v, []byte("null")):
			out[k] = ""
		case v[0] == '"':
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			out[k] = s
		case v[0] == '{' || v[0] == '[':
			return fmt.Errorf("detail %q must be a scalar", k)
		default:
			out[k] = string(v)
		}
	}
	*d = out
	return nil
}

// Clone returns a copy that never aliases d. A nil map clones to an empty one.
func (d Details) Clone() Details {
	out := make(Details, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Record is one customer/package entry.
type Record struct {
	ID             RecordID   `json:"id"`
	CustomerName   string     `json:"customerName"`
	PackageTitle   string     `json:"packageTitle"`
	Snapshot       string     `json:"pdfData"`
	PackageDetails Details    `json:"packageDetails"`
	HotelDetails   Details    `json:"hotelDetails"`
	CreatedAt      Timestamp  `json:"createdAt"`
	UpdatedAt      *Timestamp `json:"updatedAt,omitempty"`
	Status         Status     `json:"status"`

	// raw holds a slot element that did not decode as a record.
	raw json.RawMessage
}

// Key returns the dedup key rendered as "customer/title", the form matched by Find.
func (r Record) Key() string {
	return r.CustomerName + "/" + r.PackageTitle
}

// SameKey reports whether r carries the given dedup key. Matching is exact and case-sensitive.
func (r Record) SameKey(customerName, packageTitle string) bool {
	return r.CustomerName == customerName && r.PackageTitle == packageTitle
}

// Timestamp is a UTC instant encoded with millisecond precision,
// e.g. "2024-05-01T10:20:30.123Z".
type Timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewTimestamp truncates t to milliseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = NewTimestamp(parsed)
	return nil
}
