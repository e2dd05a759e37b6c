// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package envprovider

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// cipherBox derives a symmetric key from a master key and salt via
// scrypt, then seals/opens values with ChaCha20-Poly1305. Encrypted
// values are stored as base64(nonce || ciphertext).
type cipherBox struct {
	aead [32]byte // derived key, fed to chacha20poly1305.New on use
}

func newCipherBox(masterKey, salt string) (*cipherBox, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("envprovider: master key must not be empty")
	}
	derived, err := scrypt.Key([]byte(masterKey), []byte(salt), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("envprovider: derive key: %w", err)
	}
	cb := &cipherBox{}
	copy(cb.aead[:], derived)
	return cb, nil
}

// seal encrypts plaintext, returning a base64 string safe to store
// behind the "enc:" prefix. Exposed for tests and for tooling that
// writes new encrypted values into the environment.
func (c *cipherBox) seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.New(c.aead[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("envprovider: nonce: %w", err)
	}
	ciphertext := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (c *cipherBox) open(encoded string) (string, error) {
	aead, err := chacha20poly1305.New(c.aead[:])
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("envprovider: base64 decode: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("envprovider: ciphertext too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("envprovider: decrypt: %w", err)
	}
	return string(plaintext), nil
}
