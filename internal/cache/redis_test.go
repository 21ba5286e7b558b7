package cache_test

import (
	"testing"
	"time"

	"tasktrack/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedisCacheWithClient(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	rc, _ := setupRedisCache(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, rc.Set("key1", payload{Name: "tasks", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, rc.Get("key1", &got))
	assert.Equal(t, "tasks", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestRedisCache_Miss(t *testing.T) {
	rc, _ := setupRedisCache(t)

	var dest string
	err := rc.Get("absent", &dest)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	rc, _ := setupRedisCache(t)

	require.NoError(t, rc.Set("key1", "value", time.Minute))
	require.NoError(t, rc.Delete("key1"))

	var dest string
	assert.ErrorIs(t, rc.Get("key1", &dest), cache.ErrCacheMiss)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	rc, _ := setupRedisCache(t)

	require.NoError(t, rc.Set("user_tasks:u1:page1", "a", time.Minute))
	require.NoError(t, rc.Set("user_tasks:u1:page2", "b", time.Minute))
	require.NoError(t, rc.Set("user_tasks:u2:page1", "c", time.Minute))
	require.NoError(t, rc.Set("task:t1", "d", time.Minute))

	require.NoError(t, rc.DeletePattern("user_tasks:u1:*"))

	var dest string
	assert.ErrorIs(t, rc.Get("user_tasks:u1:page1", &dest), cache.ErrCacheMiss)
	assert.ErrorIs(t, rc.Get("user_tasks:u1:page2", &dest), cache.ErrCacheMiss)
	assert.NoError(t, rc.Get("user_tasks:u2:page1", &dest))
	assert.NoError(t, rc.Get("task:t1", &dest))
}

func TestRedisCache_Expiration(t *testing.T) {
	rc, mr := setupRedisCache(t)

	require.NoError(t, rc.Set("short", "lived", time.Second))
	mr.FastForward(2 * time.Second)

	var dest string
	assert.ErrorIs(t, rc.Get("short", &dest), cache.ErrCacheMiss)
}

func TestRedisCache_Exists(t *testing.T) {
	rc, _ := setupRedisCache(t)

	found, err := rc.Exists("key1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rc.Set("key1", "value", time.Minute))

	found, err = rc.Exists("key1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRedisCache_Health(t *testing.T) {
	rc, mr := setupRedisCache(t)

	assert.NoError(t, rc.Health())

	mr.Close()
	assert.Error(t, rc.Health())
}
