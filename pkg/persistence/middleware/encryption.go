package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
)

// envelopeKey holds the ciphertext inside the stored response.
const envelopeKey = "__encrypted__"

// ErrMissingEnvelope is returned when a cached entry was not written by the encryption middleware.
var ErrMissingEnvelope = errors.New("cached response is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.Cache
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts cached responses using AES-GCM.
// Map tokens grant access to rendered data, so they never reach the backing cache in clear.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.Cache) ports.Cache {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Set(ctx context.Context, key string, resp *ports.Response, ttl time.Duration) error {
	plainText, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt response: %w", err)
	}

	// The envelope hides the map id and token, only the ciphertext is stored.
	body, err := json.Marshal(map[string]string{
		envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return err
	}
	return m.next.Set(ctx, key, &ports.Response{Result: body}, ttl)
}

func (m *encryptionMiddleware) Get(ctx context.Context, key string) (*ports.Response, error) {
	envelope, err := m.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var wrapped map[string]string
	if err := json.Unmarshal(envelope.Result, &wrapped); err != nil {
		return nil, ErrMissingEnvelope
	}
	encoded, ok := wrapped[envelopeKey]
	if !ok {
		// Fail secure: plain entries are never returned once encryption is configured.
		return nil, ErrMissingEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt response: %w", err)
	}

	var resp ports.Response
	if err := json.Unmarshal(plainText, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted response: %w", err)
	}
	return &resp, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
