package polymorphic

import (
	"fmt"
	"reflect"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// match is the outcome of resolving an instance against the registry.
type match struct {
	name    string
	handler serializer.Serializer
	// value is what the handler receives: the instance itself, or the
	// embedded ancestor struct when only an ancestor is registered.
	value    any
	embedded bool
}

// resolve finds the handler for instance. The most derived registration
// wins: an explicit Discriminator value first, then the instance type, then
// embedded structs breadth first in declaration order.
func (d *Dispatcher) resolve(instance any) (match, error) {
	if isNil(instance) {
		return match{}, &UnknownTypeError{Dispatcher: d.name, Type: fmt.Sprintf("%T", instance)}
	}

	if disc, ok := instance.(Discriminator); ok {
		name := disc.DiscriminatorValue()
		if handler, ok := d.registry[name]; ok {
			target := d.models[name]
			var found *match
			walkEmbedded(instance, func(v reflect.Value, depth int) bool {
				if v.Type() != target {
					return false
				}
				found = &match{name: name, handler: handler, value: valueOf(instance, v, depth), embedded: depth > 0}
				return true
			})
			if found != nil {
				return *found, nil
			}
		}
	}

	var found *match
	walkEmbedded(instance, func(v reflect.Value, depth int) bool {
		name, ok := d.byType[v.Type()]
		if !ok {
			return false
		}
		found = &match{name: name, handler: d.registry[name], value: valueOf(instance, v, depth), embedded: depth > 0}
		return true
	})
	if found != nil {
		return *found, nil
	}
	return match{}, &UnknownTypeError{Dispatcher: d.name, Type: fmt.Sprintf("%T", instance)}
}

// walkEmbedded visits the struct behind instance and then its exported
// embedded structs, breadth first. visit returns true to stop.
func walkEmbedded(instance any, visit func(v reflect.Value, depth int) bool) {
	type node struct {
		v     reflect.Value
		depth int
	}

	root := reflect.ValueOf(instance)
	for root.Kind() == reflect.Pointer {
		if root.IsNil() {
			return
		}
		root = root.Elem()
	}
	if root.Kind() != reflect.Struct {
		return
	}

	seen := map[reflect.Type]bool{}
	queue := []node{{v: root}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n.v.Type()] {
			continue
		}
		seen[n.v.Type()] = true
		if visit(n.v, n.depth) {
			return
		}

		t := n.v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.Anonymous || !f.IsExported() {
				continue
			}
			fv := n.v.Field(i)
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				queue = append(queue, node{v: fv, depth: n.depth + 1})
			}
		}
	}
}

// valueOf returns the handler argument for a visited struct: the original
// instance at depth zero, otherwise a pointer into the instance when
// addressable, or a copy.
func valueOf(instance any, v reflect.Value, depth int) any {
	if depth == 0 {
		return instance
	}
	if v.CanAddr() {
		return v.Addr().Interface()
	}
	return v.Interface()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// modelType returns the struct type a handler serializes, or nil.
func modelType(s serializer.Serializer) reflect.Type {
	m, ok := s.(serializer.Modeler)
	if !ok {
		return nil
	}
	t := m.Model()
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
