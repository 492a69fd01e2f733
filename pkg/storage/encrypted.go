package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required size of the master key for EncryptedStorage.
const KeySize = 32

// hkdfInfo provides domain separation for the derived storage key.
const hkdfInfo = "posdash-storage-v1"

// EncryptedStorage seals every value with AES-256-GCM before handing it to
// the wrapped Storage. Ciphertext layout: nonce | sealed data | tag.
type EncryptedStorage struct {
	next Storage
	aead cipher.AEAD
}

// NewEncryptedStorage derives the data key from masterKey (32 bytes) with
// HKDF-SHA256 and wraps next.
func NewEncryptedStorage(next Storage, masterKey []byte) (*EncryptedStorage, error) {
	if next == nil || len(masterKey) != KeySize {
		return nil, ErrInvalidConfig
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return &EncryptedStorage{next: next, aead: aead}, nil
}

// Get returns ErrCorrupted when the stored blob cannot be opened, which also
// covers values written with a different master key.
func (s *EncryptedStorage) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrCorrupted
	}

	// key is bound as additional data so blobs cannot be swapped between keys
	plain, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(key))
	if err != nil {
		return nil, errors.Join(ErrCorrupted, err)
	}
	return plain, nil
}

func (s *EncryptedStorage) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return s.next.Set(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

func (s *EncryptedStorage) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}
