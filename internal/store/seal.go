package store

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealer wraps the on-disk JSON document in ChaCha20-Poly1305 when a
// store key is configured. Session tokens are bearer capabilities, so
// plaintext-at-rest is a deliberate default; this is the opt-in
// alternative for users who disagree with that trade-off.
type sealer struct {
	key [chacha20poly1305.KeySize]byte
}

func newSealer(passphrase string) *sealer {
	s := &sealer{}
	kdf := hkdf.New(sha256.New, []byte(passphrase), []byte("pairlink-store"), nil)
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		panic("hkdf: " + err.Error())
	}
	return s
}

// close seals plaintext into nonce || ciphertext.
func (s *sealer) close(plaintext []byte) []byte {
	aead, err := chacha20poly1305.New(s.key[:])
	if err != nil {
		panic("chacha20poly1305: " + err.Error())
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		panic("failed to generate nonce: " + err.Error())
	}
	return append(nonce, aead.Seal(nil, nonce, plaintext, nil)...)
}

// open reverses close. A short or tampered document errors, which the
// caller degrades to an empty store.
func (s *sealer) open(data []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key[:])
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed store too short")
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal store: %w", err)
	}
	return plaintext, nil
}
