package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
)

type memoryCacheRepo struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(v, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.values, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

func TestCacheServiceRemember(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	loads := 0
	load := func(dest *[]string) func() error {
		return func() error {
			loads++
			*dest = []string{"2025-03-03"}
			return nil
		}
	}

	var first []string
	hit, err := cache.Remember(context.Background(), SlotsCacheKey("prof-1", "2025-03-01"), &first, load(&first))
	require.NoError(t, err)
	assert.False(t, hit)

	var second []string
	hit, err = cache.Remember(context.Background(), SlotsCacheKey("prof-1", "2025-03-01"), &second, load(&second))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"2025-03-03"}, second)
	assert.Equal(t, 1, loads)
}

func TestCacheServiceInvalidateProfessor(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, SlotsCacheKey("prof-1", "2025-03-01"), []string{"a"}, 0))
	require.NoError(t, cache.Set(ctx, CalendarCacheKey("professor", "prof-1", "2025-03-01"), []string{"b"}, 0))
	require.NoError(t, cache.Set(ctx, SlotsCacheKey("prof-2", "2025-03-01"), []string{"c"}, 0))

	require.NoError(t, cache.Invalidate(ctx, OwnerCachePattern("prof-1")))
	assert.Equal(t, 1, repo.keys())
}

func TestCacheServiceInvalidateStudent(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, CalendarCacheKey("student", "stu-1", "2025-03-01"), []string{"a"}, 0))
	require.NoError(t, cache.Set(ctx, CalendarCacheKey("student", "stu-2", "2025-03-01"), []string{"b"}, 0))
	require.NoError(t, cache.Set(ctx, SlotsCacheKey("prof-1", "2025-03-01"), []string{"c"}, 0))

	require.NoError(t, cache.Invalidate(ctx, OwnerCachePattern("stu-1")))
	assert.Equal(t, 2, repo.keys())

	var out []string
	hit, err := cache.Get(ctx, CalendarCacheKey("student", "stu-2", "2025-03-01"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCacheServiceDisabledAndFailures(t *testing.T) {
	var disabled *CacheService
	hit, err := disabled.Get(context.Background(), "k", &[]string{})
	require.NoError(t, err)
	assert.False(t, hit)

	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("redis down")
	cache := NewCacheService(repo, nil, 0, nil, true)

	var out []string
	hit, err = cache.Remember(context.Background(), "k", &out, func() error {
		out = []string{"fresh"}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"fresh"}, out)
}
