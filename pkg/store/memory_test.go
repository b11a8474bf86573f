package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entity struct {
	ID   string
	Name string
}

func (e *entity) GetID() string   { return e.ID }
func (e *entity) SetID(id string) { e.ID = id }

type other struct {
	ID string
}

func (o *other) GetID() string   { return o.ID }
func (o *other) SetID(id string) { o.ID = id }

type anonymous struct {
	Name string
}

func TestMemoryInsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	e := &entity{Name: "a"}
	require.NoError(t, m.Insert(ctx, e))
	assert.NotEmpty(t, e.ID, "insert should assign an id")

	err := m.Insert(ctx, e)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	var existsErr *AlreadyExistsError
	require.ErrorAs(t, err, &existsErr)
	assert.Equal(t, e.ID, existsErr.Key)

	require.NoError(t, m.Insert(ctx, &entity{ID: "fixed"}))
	require.NoError(t, m.Insert(ctx, &anonymous{Name: "x"}))
	require.NoError(t, m.Insert(ctx, &anonymous{Name: "x"}))
	assert.Equal(t, 4, m.Count())
}

func TestMemoryUpdateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.Update(ctx, &entity{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	e := &entity{ID: "1", Name: "a"}
	require.NoError(t, m.Insert(ctx, e))
	replacement := &entity{ID: "1", Name: "b"}
	require.NoError(t, m.Update(ctx, replacement))

	got, err := m.Get(ctx, "1")
	require.NoError(t, err)
	assert.Same(t, replacement, got)

	_, err = m.Get(ctx, "2")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, m.Insert(ctx, &entity{ID: id}))
	}
	require.NoError(t, m.Insert(ctx, &other{ID: "o"}))

	var ids []string
	for _, e := range m.All(ctx) {
		ids = append(ids, e.(Identifiable).GetID())
	}
	assert.Equal(t, []string{"c", "a", "b", "o"}, ids)

	matches, err := m.Filter(ctx, func(e any) bool {
		_, ok := e.(*other)
		return ok
	})
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	assert.Len(t, InstanceOf[entity](m), 3)
	assert.Len(t, InstanceOf[other](m), 1)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Filter(cancelled, func(any) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryInjectedErrors(t *testing.T) {
	ctx := context.Background()
	insertErr := errors.New("insert failed")
	updateErr := errors.New("update failed")

	m := NewMemory().WithInsertError(insertErr).WithUpdateError(updateErr)
	assert.ErrorIs(t, m.Insert(ctx, &entity{}), insertErr)
	assert.ErrorIs(t, m.Update(ctx, &entity{ID: "1"}), updateErr)
	assert.Equal(t, 0, m.Count())
}
