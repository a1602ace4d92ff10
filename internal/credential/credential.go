package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// ErrEmptySecret is returned when an empty string is hashed or compared.
var ErrEmptySecret = errors.New("credential: empty secret")

// idAlphabet is the character set for generated token identifiers.
const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Hasher produces keyed one-way digests of plaintext secrets. The key is
// injected at construction; the same secret always hashes to the same digest
// under the same key.
type Hasher struct {
	key []byte
}

// NewHasher creates a Hasher with the given key.
func NewHasher(key string) (*Hasher, error) {
	if key == "" {
		return nil, errors.New("credential: hash key must not be empty")
	}
	return &Hasher{key: []byte(key)}, nil
}

// Hash returns the hex-encoded HMAC-SHA256 digest of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Compare reports whether secret hashes to digest. The comparison is
// constant time with respect to the digest contents.
func (h *Hasher) Compare(secret, digest string) (bool, error) {
	computed, err := h.Hash(secret)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1, nil
}

// RandomID returns a fresh identifier of exactly n characters drawn from a
// fixed alphanumeric alphabet, using crypto/rand.
func RandomID(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("credential: invalid id length %d", n)
	}
	max := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("credential: read random: %w", err)
		}
		b[i] = idAlphabet[idx.Int64()]
	}
	return string(b), nil
}
