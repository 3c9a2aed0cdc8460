// Package codec converts ledger amounts to and from their stored form.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/hkdf"
)

// AmountCodec encodes amounts on write and decodes them on read.
type AmountCodec interface {
	Encode(amount decimal.Decimal) (string, error)
	Decode(stored string) (decimal.Decimal, error)
}

// ErrMalformed is returned when a stored value cannot be decoded.
var ErrMalformed = errors.New("codec: malformed stored amount")

const hkdfInfo = "helpinvest amount codec v1"

// New returns an AESGCM codec keyed from secret, or Plain when secret is empty.
func New(secret string) (AmountCodec, error) {
	if secret == "" {
		return Plain{}, nil
	}
	return NewAESGCM(secret)
}

// Plain stores the canonical decimal string.
type Plain struct{}

// Encode returns the canonical decimal representation.
func (Plain) Encode(amount decimal.Decimal) (string, error) {
	return amount.String(), nil
}

// Decode parses a canonical decimal string.
func (Plain) Decode(stored string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(stored)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}

// AESGCM seals amounts with AES-256-GCM. Each value carries its own random
// nonce; the stored form is base64(nonce || ciphertext).
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM derives a 256-bit key from secret with HKDF-SHA256.
func NewAESGCM(secret string) (*AESGCM, error) {
	if secret == "" {
		return nil, errors.New("codec: empty encryption secret")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Encode encrypts the canonical decimal string of amount.
func (c *AESGCM) Encode(amount decimal.Decimal) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(amount.String()), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode.
func (c *AESGCM) Decode(stored string) (decimal.Decimal, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return decimal.Zero, ErrMalformed
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Plain{}.Decode(string(plain))
}
