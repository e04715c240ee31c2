package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCacheContract runs a suite of tests to verify that a Cache implementation
// adheres to the defined interface contract.
func RunCacheContract(t *testing.T, cache Cache) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		resp := &Response{ID: "map-1", Token: "tok", Result: json.RawMessage(`{"bands":3}`)}

		err := cache.Set(ctx, key, resp, time.Minute)
		require.NoError(t, err, "Set should not return error")

		got, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, resp.ID, got.ID)
		assert.Equal(t, resp.Token, got.Token)
		assert.JSONEq(t, string(resp.Result), string(got.Result))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, &Response{ID: "first"}, time.Minute))
		require.NoError(t, cache.Set(ctx, key, &Response{ID: "second"}, time.Minute))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got.ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, &Response{ID: "gone"}, time.Minute))

		err := cache.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = cache.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss, "Get after Delete should return ErrCacheMiss")

		assert.NoError(t, cache.Delete(ctx, key), "deleting twice is fine")
	})
}
