package passwordsealer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"setpass/internal/core/domain/token"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrInvalidSealedPassword = errors.New("invalid sealed password")

// Secretbox keeps the current password recoverable, it has to be presented
// to the identity provider when the new one is set.
type Secretbox struct {
	key [32]byte
}

func NewSecretbox(secretKey string) *Secretbox {
	return &Secretbox{key: sha256.Sum256([]byte(secretKey))}
}

func (s *Secretbox) Seal(password token.RawPassword) (token.SealedPassword, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(password), &nonce, &s.key)
	return token.SealedPassword(base64.RawURLEncoding.EncodeToString(sealed)), nil
}

func (s *Secretbox) Unseal(sealed token.SealedPassword) (token.RawPassword, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(string(sealed))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSealedPassword, err)
	}
	if len(decoded) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSealedPassword
	}
	var nonce [nonceSize]byte
	copy(nonce[:], decoded[:nonceSize])
	opened, ok := secretbox.Open(nil, decoded[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrInvalidSealedPassword
	}
	return token.RawPassword(opened), nil
}
