package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Sealer encrypts bearer tokens before they are written to durable storage.
//
// A bearer token is a credential: anyone holding it can register and
// unregister students. The storage file therefore only ever sees
// XChaCha20-Poly1305 ciphertext, keyed from the session secret with HKDF.
// The visitor ID is bound as associated data, so a sealed token copied into
// another visitor's slot does not open.
//
// Stored format: base64(nonce || ciphertext).
type Sealer struct {
	aead cipher.AEAD
}

const sealerInfo = "activities-portal token sealing v1"

// NewSealer derives the sealing key from secret.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sealerInfo)), key); err != nil {
		return nil, fmt.Errorf("auth: deriving sealing key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("auth: creating AEAD: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts token for visitorID.
func (s *Sealer) Seal(visitorID, token string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(token)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth: generating nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(token), []byte(visitorID))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal for the same visitorID.
func (s *Sealer) Open(visitorID, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("auth: decoding sealed token: %w", err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", errors.New("auth: sealed token too short")
	}
	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, []byte(visitorID))
	if err != nil {
		return "", fmt.Errorf("auth: opening sealed token: %w", err)
	}
	return string(plain), nil
}
