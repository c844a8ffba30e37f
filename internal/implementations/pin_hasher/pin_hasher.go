package pinhasher

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"setpass/internal/core/domain/token"
)

// HMAC stores PINs as keyed digests. Comparison is an exact byte match.
type HMAC struct {
	secretKey []byte
}

func NewHMAC(secretKey string) *HMAC {
	return &HMAC{secretKey: []byte(secretKey)}
}

func (h *HMAC) HashPin(pin token.Pin) token.PinDigest {
	hasher := hmac.New(sha256.New, h.secretKey)
	io.WriteString(hasher, string(pin))
	return token.PinDigest(fmt.Sprintf("%x", hasher.Sum(nil)))
}

func (h *HMAC) ValidatePin(pin token.Pin, digest token.PinDigest) bool {
	expected := h.HashPin(pin)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(digest)) == 1
}
