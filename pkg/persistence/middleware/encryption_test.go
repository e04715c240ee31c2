package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunCacheContract(t, mw(memory.NewCache()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewCache()
	secure := middleware.Chain(underlying,
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
	ctx := context.Background()

	original := &ports.Response{ID: "map-7", Token: "secret-token", Result: json.RawMessage(`{"a":1}`)}
	require.NoError(t, secure.Set(ctx, "fp", original, time.Minute))

	stored, err := underlying.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Empty(t, stored.ID)
	assert.Empty(t, stored.Token)
	assert.False(t, strings.Contains(string(stored.Result), "secret-token"), "token must be hidden")
	assert.Contains(t, string(stored.Result), "__encrypted__")

	loaded, err := secure.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, "map-7", loaded.ID)
	assert.Equal(t, "secret-token", loaded.Token)
	assert.JSONEq(t, `{"a":1}`, string(loaded.Result))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewCache()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Set(ctx, "fp", &ports.Response{ID: "old"}, time.Minute))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Get(ctx, "fp")
	require.NoError(t, err, "fallback key decrypts old entries")
	assert.Equal(t, "old", loaded.ID)

	require.NoError(t, secureNew.Set(ctx, "fp", &ports.Response{ID: "new"}, time.Minute))
	_, err = secureOld.Get(ctx, "fp")
	assert.Error(t, err, "old key alone cannot read entries written with the new key")
}

func TestEncryptionMiddleware_RejectsPlainEntries(t *testing.T) {
	underlying := memory.NewCache()
	require.NoError(t, underlying.Set(context.Background(), "fp", &ports.Response{ID: "plain"}, time.Minute))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Get(context.Background(), "fp")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
