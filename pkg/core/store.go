package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/itt/pkg/core"

// UpsertInput carries the values written by Upsert and Replace.
type UpsertInput struct {
	CustomerName   string  `json:"customerName" validate:"required"`
	PackageTitle   string  `json:"packageTitle" validate:"required"`
	Snapshot       string  `json:"pdfData"`
	PackageDetails Details `json:"packageDetails"`
	HotelDetails   Details `json:"hotelDetails"`
}

// Store keeps the customer package records of one slot.
//
// Every mutation is a read-mutate-write of the whole collection. Within a process
// mutations are serialized. Across processes the store relies on the provider:
// Versioned providers get compare-and-set with retries, Locker providers hold
// their lock for the whole sequence. Providers offering neither can lose updates
// when two processes write the same slot at once.
type Store struct {
	kv       KV
	opts     *options
	validate *validator.Validate
	tracer   trace.Tracer
	mu       sync.Mutex
}

// NewStore creates a Store persisting into kv.
func NewStore(kv KV, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Store{
		kv:       kv,
		opts:     o,
		validate: v,
		tracer:   otel.Tracer(tracerName),
	}
}

// Key returns the storage key of the slot.
func (s *Store) Key() string {
	return s.opts.key
}

// List returns every record in insertion order. Absent or undecodable slot
// data yields an empty list; array elements that are not records are left out.
func (s *Store) List(ctx context.Context) (records []Record, err error) {
	ctx, done := s.begin(ctx, OpList)
	defer func() { done(err) }()

	records, err = s.load(ctx)
	if err != nil {
		return nil, err
	}
	return readable(records), nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id RecordID) (rec Record, found bool, err error) {
	ctx, done := s.begin(ctx, OpGet, attribute.String("itt.record_id", id.String()))
	defer func() { done(err) }()

	records, err := s.load(ctx)
	if err != nil {
		return Record{}, false, err
	}
	if idx := indexOf(records, id); idx >= 0 {
		return records[idx], true, nil
	}
	return Record{}, false, nil
}

// Find returns the records whose "customer/title" key matches a doublestar
// pattern, e.g. "Alice/*" or "**/Dubai*".
func (s *Store) Find(ctx context.Context, pattern string) (matched []Record, err error) {
	ctx, done := s.begin(ctx, OpFind, attribute.String("itt.pattern", pattern))
	defer func() { done(err) }()

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	records = readable(records)
	matched = make([]Record, 0, len(records))
	for _, r := range records {
		if ok, _ := doublestar.Match(pattern, r.Key()); ok {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Upsert creates the record for (CustomerName, PackageTitle) or, if one
// exists, overwrites its snapshot and details. It returns the affected id.
func (s *Store) Upsert(ctx context.Context, in UpsertInput) (id RecordID, err error) {
	ctx, done := s.begin(ctx, OpUpsert)
	defer func() { done(err) }()

	if err := s.check(in); err != nil {
		return "", err
	}
	ctx = defaultReason(ctx, "save %s/%s", in.CustomerName, in.PackageTitle)

	created := false
	err = s.mutate(ctx, func(records []Record) ([]Record, bool, error) {
		now := s.now()
		if i := indexOfKey(records, in.CustomerName, in.PackageTitle); i >= 0 {
			records[i].Snapshot = in.Snapshot
			records[i].PackageDetails = in.PackageDetails.Clone()
			records[i].HotelDetails = in.HotelDetails.Clone()
			records[i].UpdatedAt = &now
			id, created = records[i].ID, false
			return records, true, nil
		}

		rec := Record{
			ID:             s.opts.newID(),
			CustomerName:   in.CustomerName,
			PackageTitle:   in.PackageTitle,
			Snapshot:       in.Snapshot,
			PackageDetails: in.PackageDetails.Clone(),
			HotelDetails:   in.HotelDetails.Clone(),
			CreatedAt:      now,
			Status:         StatusActive,
		}
		id, created = rec.ID, true
		return append(records, rec), true, nil
	})
	if err != nil {
		return "", err
	}

	s.debug("record saved", "id", id, "created", created, "customer", in.CustomerName, "package", in.PackageTitle)
	return id, nil
}

// UpdateByOtherFields renames the record with the given id. It returns false,
// without writing, when no such record exists.
func (s *Store) UpdateByOtherFields(ctx context.Context, id RecordID, customerName, packageTitle string) (ok bool, err error) {
	ctx, done := s.begin(ctx, OpRename, attribute.String("itt.record_id", id.String()))
	defer func() { done(err) }()

	if err := s.check(UpsertInput{CustomerName: customerName, PackageTitle: packageTitle}); err != nil {
		return false, err
	}
	ctx = defaultReason(ctx, "rename %s to %s/%s", id, customerName, packageTitle)

	err = s.mutate(ctx, func(records []Record) ([]Record, bool, error) {
		ok = false
		idx := indexOf(records, id)
		if idx < 0 {
			return records, false, nil
		}
		if dup := indexOfKey(records, customerName, packageTitle); dup >= 0 && dup != idx {
			return nil, false, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, customerName, packageTitle)
		}
		now := s.now()
		records[idx].CustomerName = customerName
		records[idx].PackageTitle = packageTitle
		records[idx].UpdatedAt = &now
		ok = true
		return records, true, nil
	})
	if err != nil {
		return false, err
	}

	s.debug("record renamed", "id", id, "found", ok)
	return ok, nil
}

// Replace overwrites every editable field of the record with the given id
// (edit mode). It returns false, without writing, when no such record exists.
func (s *Store) Replace(ctx context.Context, id RecordID, in UpsertInput) (ok bool, err error) {
	ctx, done := s.begin(ctx, OpReplace, attribute.String("itt.record_id", id.String()))
	defer func() { done(err) }()

	if err := s.check(in); err != nil {
		return false, err
	}
	ctx = defaultReason(ctx, "replace %s", id)

	err = s.mutate(ctx, func(records []Record) ([]Record, bool, error) {
		ok = false
		idx := indexOf(records, id)
		if idx < 0 {
			return records, false, nil
		}
		if dup := indexOfKey(records, in.CustomerName, in.PackageTitle); dup >= 0 && dup != idx {
			return nil, false, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, in.CustomerName, in.PackageTitle)
		}
		now := s.now()
		r := &records[idx]
		r.CustomerName = in.CustomerName
		r.PackageTitle = in.PackageTitle
		r.Snapshot = in.Snapshot
		r.PackageDetails = in.PackageDetails.Clone()
		r.HotelDetails = in.HotelDetails.Clone()
		r.UpdatedAt = &now
		ok = true
		return records, true, nil
	})
	if err != nil {
		return false, err
	}

	s.debug("record replaced", "id", id, "found", ok)
	return ok, nil
}

// DeleteByID removes the record with the given id. Deleting an unknown id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id RecordID) (err error) {
	ctx, done := s.begin(ctx, OpDelete, attribute.String("itt.record_id", id.String()))
	defer func() { done(err) }()

	ctx = defaultReason(ctx, "delete %s", id)

	removed := 0
	err = s.mutate(ctx, func(records []Record) ([]Record, bool, error) {
		kept := make([]Record, 0, len(records))
		for _, r := range records {
			if r.raw != nil || r.ID != id {
				kept = append(kept, r)
			}
		}
		removed = len(records) - len(kept)
		return kept, true, nil
	})
	if err != nil {
		return err
	}

	s.debug("record deleted", "id", id, "removed", removed)
	return nil
}

// SaveCurrent extracts the fields of the current document and upserts them.
// Empty or placeholder customer names are rejected with ErrInvalidRecord.
func (s *Store) SaveCurrent(ctx context.Context, ex Extractor) (RecordID, error) {
	in, err := s.extract(ctx, ex)
	if err != nil {
		return "", err
	}
	return s.Upsert(ctx, in)
}

// ReplaceCurrent extracts the fields of the current document and replaces the
// record with the given id.
func (s *Store) ReplaceCurrent(ctx context.Context, id RecordID, ex Extractor) (bool, error) {
	in, err := s.extract(ctx, ex)
	if err != nil {
		return false, err
	}
	return s.Replace(ctx, id, in)
}

func (s *Store) extract(ctx context.Context, ex Extractor) (UpsertInput, error) {
	fields, err := ex.ExtractCurrentFields(ctx)
	if err != nil {
		return UpsertInput{}, fmt.Errorf("failed to extract fields: %w", err)
	}

	name := strings.TrimSpace(fields.CustomerName)
	title := strings.TrimSpace(fields.PackageTitle)
	if title == "" {
		title = s.opts.fallbackTitle
	}
	if name == "" || s.isPlaceholder(name) {
		return UpsertInput{}, fmt.Errorf("%w: customer name is missing", ErrInvalidRecord)
	}
	if title == "" {
		return UpsertInput{}, fmt.Errorf("%w: package title is missing", ErrInvalidRecord)
	}

	return UpsertInput{
		CustomerName:   name,
		PackageTitle:   title,
		Snapshot:       fields.Snapshot,
		PackageDetails: fields.PackageDetails,
		HotelDetails:   fields.HotelDetails,
	}, nil
}

func (s *Store) isPlaceholder(name string) bool {
	for _, p := range s.opts.placeholders {
		if name == p {
			return true
		}
	}
	return false
}

// mutation transforms the loaded records. It returns the records to persist,
// whether they must be written at all, and an error that aborts the write.
// It may run more than once when a compare-and-set retry happens.
type mutation func(records []Record) ([]Record, bool, error)

func (s *Store) mutate(ctx context.Context, fn mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.kv.(Locker); ok {
		unlock, err := l.Lock(ctx, s.opts.key)
		if err != nil {
			return fmt.Errorf("failed to lock slot %s: %w", s.opts.key, err)
		}
		defer unlock()
	}

	if v, ok := s.kv.(Versioned); ok {
		return s.mutateVersioned(ctx, v, fn)
	}

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, write, err := fn(records)
	if err != nil || !write {
		return err
	}
	data, err := encodeRecords(next)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.opts.key, data); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.opts.key, err)
	}
	return nil
}

func (s *Store) mutateVersioned(ctx context.Context, v Versioned, fn mutation) error {
	for attempt := 0; attempt <= s.opts.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, version, found, err := v.GetVersioned(ctx, s.opts.key)
		if err != nil {
			return fmt.Errorf("failed to read slot %s: %w", s.opts.key, err)
		}
		next, write, err := fn(s.decode(raw, found))
		if err != nil || !write {
			return err
		}
		data, err := encodeRecords(next)
		if err != nil {
			return err
		}

		err = v.CompareAndSet(ctx, s.opts.key, data, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return fmt.Errorf("failed to write slot %s: %w", s.opts.key, err)
		}
		s.opts.observer.WriteConflict(s.opts.key)
		s.debug("slot changed during update, retrying", "slot", s.opts.key, "attempt", attempt+1)
	}
	return fmt.Errorf("%w: slot %s after %d attempts", ErrConflict, s.opts.key, s.opts.maxRetries+1)
}

func (s *Store) load(ctx context.Context) ([]Record, error) {
	raw, found, err := s.kv.Get(ctx, s.opts.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", s.opts.key, err)
	}
	return s.decode(raw, found), nil
}

func (s *Store) decode(raw string, found bool) []Record {
	if !found {
		return []Record{}
	}
	records, unreadable, err := decodeRecords(raw)
	if err != nil {
		s.opts.observer.SlotCorrupted(s.opts.key)
		if s.opts.logger != nil {
			s.opts.logger.Warn("slot data is unreadable, treating it as empty", "slot", s.opts.key, "error", err)
		}
		return []Record{}
	}
	if unreadable > 0 {
		s.opts.observer.SlotCorrupted(s.opts.key)
		if s.opts.logger != nil {
			s.opts.logger.Warn("slot holds unreadable records, keeping them unchanged", "slot", s.opts.key, "count", unreadable)
		}
	}
	return records
}

func (s *Store) now() Timestamp {
	return NewTimestamp(s.opts.clock())
}

func (s *Store) check(in UpsertInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("%w: %s is required", ErrInvalidRecord, strings.Join(missing, ", "))
}

// begin opens a span for op and returns the function that closes it and reports to the observer.
func (s *Store) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs, attribute.String("itt.slot", s.opts.key))
	ctx, span := s.tracer.Start(ctx, "store."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.opts.observer.OperationDone(op, err, time.Since(start))
	}
}

func defaultReason(ctx context.Context, format string, args ...any) context.Context {
	if _, ok := ChangeReason(ctx); ok {
		return ctx
	}
	return WithChangeReason(ctx, fmt.Sprintf(format, args...))
}

func (s *Store) debug(msg string, args ...any) {
	if s.opts.logger != nil {
		s.opts.logger.Debug(msg, args...)
	}
}

func indexOf(records []Record, id RecordID) int {
	for i := range records {
		if records[i].raw == nil && records[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfKey(records []Record, customerName, packageTitle string) int {
	for i := range records {
		if records[i].raw == nil && records[i].SameKey(customerName, packageTitle) {
			return i
		}
	}
	return -1
}
