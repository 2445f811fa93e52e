package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	ttl    time.Duration
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttl = ttl
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLock_ExclusiveAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "sync:lock", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "sync:lock", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttl)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, "sync:lock", "non-owner must not release")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.values, "sync:lock")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_DoesNotDeleteForeignOwner(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "sync:lock", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store.values["sync:lock"] = "someone-else"
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.values["sync:lock"])
}

func TestNewRedisLock_Validation(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(&memoryStore{}, "", time.Minute)
	assert.Error(t, err)
}

func TestLocalLock(t *testing.T) {
	var lock LocalLock
	ok, _ := lock.Acquire(context.Background())
	assert.True(t, ok)
	ok, _ = lock.Acquire(context.Background())
	assert.False(t, ok)
	require.NoError(t, lock.Release(context.Background()))
	ok, _ = lock.Acquire(context.Background())
	assert.True(t, ok)
}
