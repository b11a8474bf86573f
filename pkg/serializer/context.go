package serializer

import (
	"context"
	"sort"
)

// Context carries request-scoped data shared by every serializer taking
// part in one operation. It is passed by reference, so a value set by one
// serializer is visible to all others holding the same Context.
//
// A nil *Context is valid and behaves like an empty one.
type Context struct {
	ctx    context.Context
	values map[string]any
}

// NewContext creates a Context wrapping ctx. values is copied.
func NewContext(ctx context.Context, values map[string]any) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{ctx: ctx, values: make(map[string]any, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Context returns the wrapped context.Context, never nil.
func (c *Context) Context() context.Context {
	if c == nil || c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Value returns the value stored under key.
func (c *Context) Value(key string) any {
	if c == nil {
		return nil
	}
	return c.values[key]
}

// Lookup returns the value stored under key and whether it was present.
func (c *Context) Lookup(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	if c == nil {
		return
	}
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Keys returns the stored keys, sorted.
func (c *Context) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
