package sqlite

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keySalt binds derived keys to this store so the same secret used elsewhere
// yields an unrelated key.
var keySalt = []byte("fieldorders/credential-store/v1")

// DeriveKey stretches the configured secret into a 32-byte AES-256 key with
// HKDF-SHA256. An empty secret yields a nil key, which disables the store.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, nil
	}

	r := hkdf.New(sha256.New, []byte(secret), keySalt, []byte("aes-256-gcm"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive credential key: %w", err)
	}
	return key, nil
}
