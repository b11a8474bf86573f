package serializer

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// NonFieldErrors is the ErrorDetail key for errors that do not belong to a
// single field.
const NonFieldErrors = "non_field_errors"

// Record is the key-value shape of a serialized or incoming object.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	cp := make(Record, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Without returns a copy of the record with the given keys removed.
func (r Record) Without(keys ...string) Record {
	cp := r.Clone()
	for _, k := range keys {
		delete(cp, k)
	}
	return cp
}

// ErrorDetail maps a field name (or NonFieldErrors) to its messages. The
// format matches the details section of a validation error response.
type ErrorDetail map[string][]string

// Add appends a message for field.
func (e ErrorDetail) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Merge appends every message of other.
func (e ErrorDetail) Merge(other ErrorDetail) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

// Has reports whether field carries at least one message.
func (e ErrorDetail) Has(field string) bool {
	return len(e[field]) > 0
}

// Empty reports whether there are no messages at all.
func (e ErrorDetail) Empty() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return false
		}
	}
	return true
}

// Fields returns the field names carrying messages, sorted.
func (e ErrorDetail) Fields() []string {
	fields := make([]string, 0, len(e))
	for f, msgs := range e {
		if len(msgs) > 0 {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}

func (e ErrorDetail) String() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], " ")))
	}
	return strings.Join(parts, "; ")
}

// ValidationError is returned by object level validators to report
// client-side problems. Any other error returned by a validator is treated
// as a server error.
type ValidationError struct {
	Detail ErrorDetail
}

// NewValidationError builds a ValidationError with a single message under field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Detail: ErrorDetail{field: {message}}}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

// GetErrors returns the flattened messages.
func (e *ValidationError) GetErrors() []string {
	var out []string
	for _, f := range e.Detail.Fields() {
		out = append(out, e.Detail[f]...)
	}
	return out
}

// asRecord converts map-like input into a Record.
func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	rec := make(Record, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		rec[iter.Key().String()] = iter.Value().Interface()
	}
	return rec, true
}

// asList converts slice input into a list of items.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// typeName gives the short type label used in input shape errors.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "str"
	case bool:
		return "bool"
	case float32, float64:
		return "float"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}
