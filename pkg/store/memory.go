// Package store provides an in-memory, insertion ordered entity store used
// as the persistence collaborator of model serializers.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Identifiable entities carry their own key. Insert assigns a new UUID to
// entities whose key is empty.
type Identifiable interface {
	GetID() string
	SetID(id string)
}

// Memory stores pointers to entities of any type.
type Memory struct {
	mu          sync.RWMutex
	data        map[string]any
	order       []string
	insertError error
	updateError error
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]any)}
}

// WithInsertError makes Insert operations return an error
func (m *Memory) WithInsertError(err error) *Memory {
	m.insertError = err
	return m
}

// WithUpdateError makes Update operations return an error
func (m *Memory) WithUpdateError(err error) *Memory {
	m.updateError = err
	return m
}

// Insert stores a new entity.
func (m *Memory) Insert(_ context.Context, entity any) error {
	if m.insertError != nil {
		return m.insertError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.extractKey(entity, true)
	if _, exists := m.data[key]; exists {
		return &AlreadyExistsError{Type: fmt.Sprintf("%T", entity), Key: key}
	}
	m.data[key] = entity
	m.order = append(m.order, key)
	return nil
}

// Update replaces a stored entity.
func (m *Memory) Update(_ context.Context, entity any) error {
	if m.updateError != nil {
		return m.updateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.extractKey(entity, false)
	if _, exists := m.data[key]; !exists {
		return &NotFoundError{Type: fmt.Sprintf("%T", entity), Key: key}
	}
	m.data[key] = entity
	return nil
}

// Get retrieves an entity by key.
func (m *Memory) Get(_ context.Context, key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if entity, exists := m.data[key]; exists {
		return entity, nil
	}
	return nil, &NotFoundError{Type: "entity", Key: key}
}

// All returns every entity in insertion order.
func (m *Memory) All(_ context.Context) []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]any, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.data[k])
	}
	return out
}

// Filter returns the entities accepted by match, in insertion order.
func (m *Memory) Filter(ctx context.Context, match func(any) bool) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []any
	for _, e := range m.All(ctx) {
		if match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of stored entities.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// InstanceOf returns the stored entities whose dynamic type is *T.
func InstanceOf[T any](m *Memory) []*T {
	var out []*T
	for _, e := range m.All(context.Background()) {
		if t, ok := e.(*T); ok {
			out = append(out, t)
		}
	}
	return out
}

// extractKey uses the entity id, or the pointer identity for entities
// that are not Identifiable.
func (m *Memory) extractKey(entity any, assign bool) string {
	if id, ok := entity.(Identifiable); ok {
		if id.GetID() == "" && assign {
			id.SetID(uuid.NewString())
		}
		return id.GetID()
	}
	return fmt.Sprintf("%p", entity)
}
