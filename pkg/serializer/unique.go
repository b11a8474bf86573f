package serializer

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Lookup finds stored objects matching a predicate.
type Lookup interface {
	Filter(ctx context.Context, match func(any) bool) ([]any, error)
}

// UniqueTogether rejects a *T whose values for fields collide with another
// stored *T. The object being updated is excluded from the comparison.
func UniqueTogether[T any](lookup Lookup, fields ...string) ObjectValidator {
	message := fmt.Sprintf("The fields %s must make a unique set.", strings.Join(fields, ", "))
	probe := NewModelSerializer[T]()

	return ObjectValidatorFunc(func(c *Context, instance any, attrs Record) error {
		for _, f := range fields {
			if _, ok := attrs[f]; !ok {
				return nil
			}
		}

		matches, err := lookup.Filter(c.Context(), func(item any) bool {
			existing, ok := item.(*T)
			if !ok || (instance != nil && any(existing) == instance) {
				return false
			}
			rec, err := probe.ToRepresentation(c, existing)
			if err != nil {
				return false
			}
			for _, f := range fields {
				if !reflect.DeepEqual(rec[f], attrs[f]) {
					return false
				}
			}
			return true
		})
		if err != nil {
			return fmt.Errorf("unique together lookup: %w", err)
		}
		if len(matches) > 0 {
			return NewValidationError(NonFieldErrors, message)
		}
		return nil
	})
}
