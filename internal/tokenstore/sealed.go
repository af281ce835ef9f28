package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrEmptySecret is returned when a sealed tier is built without a secret.
	ErrEmptySecret = errors.New("storage secret is empty")
	errOpenFailed  = errors.New("sealed value could not be opened")
)

// SealedTier encrypts values before handing them to the wrapped tier.
// Values that cannot be opened read as absent.
type SealedTier struct {
	inner Tier
	key   [keySize]byte
}

// DeriveKey stretches a passphrase into a secretbox key. The namespace acts
// as salt so two portals sharing a backend do not share keys.
func DeriveKey(secret, namespace string) ([keySize]byte, error) {
	var key [keySize]byte
	if secret == "" {
		return key, ErrEmptySecret
	}
	raw, err := scrypt.Key([]byte(secret), []byte("academy-portal:"+namespace), 1<<15, 8, 1, keySize)
	if err != nil {
		return key, fmt.Errorf("derive storage key: %w", err)
	}
	copy(key[:], raw)
	return key, nil
}

// NewSealedTier wraps inner with secretbox encryption under key.
func NewSealedTier(inner Tier, key [keySize]byte) *SealedTier {
	return &SealedTier{inner: inner, key: key}
}

func (s *SealedTier) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	plain, err := s.open(v)
	if err != nil {
		return "", false, nil
	}
	return plain, true, nil
}

func (s *SealedTier) Set(ctx context.Context, key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *SealedTier) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

func (s *SealedTier) seal(value string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return base64.RawStdEncoding.EncodeToString(box), nil
}

func (s *SealedTier) open(value string) (string, error) {
	box, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil || len(box) < nonceSize {
		return "", errOpenFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errOpenFailed
	}
	return string(plain), nil
}
