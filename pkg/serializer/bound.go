package serializer

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNoData is returned by IsValid when no initial data was bound.
	ErrNoData = errors.New("serializer: IsValid requires initial data")
	// ErrNotValidated is returned by Save before IsValid ran.
	ErrNotValidated = errors.New("serializer: IsValid must be called before Save")
	// ErrInvalid is returned by Save when validation failed.
	ErrInvalid = errors.New("serializer: cannot save invalid data")
	// ErrBulkUpdate is returned by Save for a many binding with an instance.
	ErrBulkUpdate = errors.New("serializer: bulk update is not supported")
	// ErrMany is returned by single-object accessors on a many binding and
	// the other way around.
	ErrMany = errors.New("serializer: accessor does not match the many setting")
)

// Bound is one use of a Serializer: an optional instance, optional initial
// data, a shared Context, and the state produced by validation and saving.
// A Bound is not safe for concurrent use; serializers themselves are.
type Bound struct {
	serializer Serializer
	ctx        *Context
	instance   any
	initial    any
	hasData    bool
	partial    bool
	many       bool

	validatedOnce bool
	validated     Record
	validatedList []Record
	errors        ErrorDetail
	listErrors    []ErrorDetail
}

// Option configures a Bound.
type Option func(*Bound)

// WithInstance binds the object to represent or update.
func WithInstance(instance any) Option {
	return func(b *Bound) {
		b.instance = instance
	}
}

// WithData binds incoming data: a record for a single object or a list of
// records in many mode.
func WithData(data any) Option {
	return func(b *Bound) {
		b.initial = data
		b.hasData = true
	}
}

// WithContext shares c with the serializer.
func WithContext(c *Context) Option {
	return func(b *Bound) {
		b.ctx = c
	}
}

// Partial makes missing fields optional.
func Partial() Option {
	return func(b *Bound) {
		b.partial = true
	}
}

// Many switches to list mode: every item is handled independently and in
// order.
func Many() Option {
	return func(b *Bound) {
		b.many = true
	}
}

// Bind prepares s for one validate/save/represent cycle.
func Bind(s Serializer, opts ...Option) *Bound {
	b := &Bound{serializer: s}
	for _, opt := range opts {
		opt(b)
	}
	if b.ctx == nil {
		b.ctx = NewContext(nil, nil)
	}
	return b
}

// Serializer returns the bound serializer.
func (b *Bound) Serializer() Serializer { return b.serializer }

// Context returns the shared context.
func (b *Bound) Context() *Context { return b.ctx }

// Instance returns the bound or saved instance.
func (b *Bound) Instance() any { return b.instance }

// InitialData returns the raw bound data.
func (b *Bound) InitialData() any { return b.initial }

// HasInitialData reports whether data was bound.
func (b *Bound) HasInitialData() bool { return b.hasData }

// IsPartial reports whether missing fields are optional.
func (b *Bound) IsPartial() bool { return b.partial }

// IsMany reports whether the binding is in list mode.
func (b *Bound) IsMany() bool { return b.many }

// IsValid validates the initial data once and caches the outcome. Client
// problems are reported through the bool and Errors/ListErrors; the error
// return is reserved for server failures.
func (b *Bound) IsValid() (bool, error) {
	if !b.hasData {
		return false, ErrNoData
	}
	if !b.validatedOnce {
		var err error
		if b.many {
			err = b.validateList()
		} else {
			err = b.validateOne()
		}
		if err != nil {
			return false, err
		}
		b.validatedOnce = true
	}
	return b.valid(), nil
}

func (b *Bound) valid() bool {
	if !b.errors.Empty() {
		return false
	}
	for _, e := range b.listErrors {
		if !e.Empty() {
			return false
		}
	}
	return true
}

func (b *Bound) validateOne() error {
	b.errors = ErrorDetail{}
	rec, ok := asRecord(b.initial)
	if !ok {
		b.errors.Add(NonFieldErrors, fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeName(b.initial)))
		return nil
	}
	validated, detail, err := b.serializer.Validate(b.ctx, b.instance, rec, b.partial)
	if err != nil {
		return err
	}
	if !detail.Empty() {
		b.errors = detail
		return nil
	}
	b.validated = validated
	return nil
}

func (b *Bound) validateList() error {
	b.errors = ErrorDetail{}
	items, ok := asList(b.initial)
	if !ok {
		b.errors.Add(NonFieldErrors, fmt.Sprintf("Expected a list of items but got type %q.", typeName(b.initial)))
		return nil
	}

	validated := make([]Record, len(items))
	listErrors := make([]ErrorDetail, len(items))
	failed := false
	for i, item := range items {
		listErrors[i] = ErrorDetail{}
		rec, ok := asRecord(item)
		if !ok {
			listErrors[i].Add(NonFieldErrors, fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeName(item)))
			failed = true
			continue
		}
		v, detail, err := b.serializer.Validate(b.ctx, nil, rec, b.partial)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if !detail.Empty() {
			listErrors[i] = detail
			failed = true
			continue
		}
		validated[i] = v
	}

	b.listErrors = listErrors
	if !failed {
		b.validatedList = validated
	}
	return nil
}

// Errors returns the validation errors of a single binding, or the list
// level errors of a many binding.
func (b *Bound) Errors() ErrorDetail {
	if b.errors == nil {
		return ErrorDetail{}
	}
	return b.errors
}

// ListErrors returns one ErrorDetail per input item; entries of valid items
// are empty.
func (b *Bound) ListErrors() []ErrorDetail {
	cp := make([]ErrorDetail, len(b.listErrors))
	copy(cp, b.listErrors)
	return cp
}

// ValidatedData returns the validated record of a successful single binding.
func (b *Bound) ValidatedData() Record {
	return b.validated.Clone()
}

// ValidatedList returns the validated records of a successful many binding.
func (b *Bound) ValidatedList() []Record {
	if b.validatedList == nil {
		return nil
	}
	out := make([]Record, len(b.validatedList))
	for i, r := range b.validatedList {
		out[i] = r.Clone()
	}
	return out
}

// Data returns the output record: the instance representation when an
// instance is bound and valid, the validated record after a successful
// IsValid, the initial data after a failed one, or an empty record.
func (b *Bound) Data() (Record, error) {
	if b.many {
		return nil, ErrMany
	}
	switch {
	case b.instance != nil && b.errors.Empty():
		return b.serializer.ToRepresentation(b.ctx, b.instance)
	case b.validated != nil:
		return b.validated.Clone(), nil
	case b.hasData:
		if rec, ok := asRecord(b.initial); ok {
			return rec.Clone(), nil
		}
	}
	return Record{}, nil
}

// ListData is the many mode counterpart of Data.
func (b *Bound) ListData() ([]Record, error) {
	if !b.many {
		return nil, ErrMany
	}
	switch {
	case b.instance != nil && b.errors.Empty() && b.validListInstance():
		items, _ := asList(b.instance)
		out := make([]Record, len(items))
		for i, item := range items {
			rec, err := b.serializer.ToRepresentation(b.ctx, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = rec
		}
		return out, nil
	case b.validatedList != nil:
		return b.ValidatedList(), nil
	case b.hasData:
		if items, ok := asList(b.initial); ok {
			out := make([]Record, len(items))
			for i, item := range items {
				rec, _ := asRecord(item)
				if rec == nil {
					rec = Record{}
				}
				out[i] = rec.Clone()
			}
			return out, nil
		}
	}
	return []Record{}, nil
}

func (b *Bound) validListInstance() bool {
	k := reflect.ValueOf(b.instance).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// Save creates or updates through the serializer. A single binding returns
// the saved instance; a many binding returns a []any in input order.
func (b *Bound) Save() (any, error) {
	if !b.validatedOnce {
		return nil, ErrNotValidated
	}
	if !b.valid() {
		return nil, ErrInvalid
	}

	if b.many {
		if b.instance != nil {
			return nil, ErrBulkUpdate
		}
		created := make([]any, len(b.validatedList))
		var errs error
		for i, rec := range b.validatedList {
			obj, err := b.serializer.Create(b.ctx, rec)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("item %d: %w", i, err))
				continue
			}
			created[i] = obj
		}
		if errs != nil {
			return created, errs
		}
		b.instance = created
		return created, nil
	}

	var (
		obj any
		err error
	)
	if b.instance != nil {
		obj, err = b.serializer.Update(b.ctx, b.instance, b.validated)
	} else {
		obj, err = b.serializer.Create(b.ctx, b.validated)
	}
	if err != nil {
		return nil, err
	}
	b.instance = obj
	return obj, nil
}
