// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Token-at-rest encryption.
//
// The session token is sealed with AES-256-GCM before it is written to the
// local store. The key is derived from session.token_secret with
// HKDF-SHA256, so rotating the secret invalidates every stored token and
// forces a fresh login.
//
// Sealed layout: nonce(12) || ciphertext || tag(16).
const (
	tokenKeySalt = "temimi-realtime-session-token"
	tokenKeyInfo = "token-at-rest-v1"

	aesKeySize   = 32
	gcmNonceSize = 12
)

var (
	// ErrEmptySecret is returned when no token secret is configured.
	ErrEmptySecret = errors.New("token secret cannot be empty")

	// ErrEmptyPlaintext is returned when sealing an empty value.
	ErrEmptyPlaintext = errors.New("plaintext cannot be empty")

	// ErrCiphertextTooShort is returned when a sealed value cannot hold a
	// nonce and tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrDecryptionFailed is returned when the tag does not verify, which
	// means the value was tampered with or sealed under another secret.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or authentication tag")
)

// CredentialEncryptor seals and opens credentials with a key derived from
// the configured token secret.
type CredentialEncryptor struct {
	aead cipher.AEAD
}

// NewCredentialEncryptor derives the AES key from secret.
func NewCredentialEncryptor(secret string) (*CredentialEncryptor, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, aesKeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(tokenKeySalt), []byte(tokenKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &CredentialEncryptor{aead: aead}, nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (e *CredentialEncryptor) Seal(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}
	nonce := make([]byte, gcmNonceSize, gcmNonceSize+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func (e *CredentialEncryptor) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < gcmNonceSize+1+e.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, sealed[:gcmNonceSize], sealed[gcmNonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// MaskCredential shows only the last four characters of a credential, for
// logs.
func MaskCredential(credential string) string {
	switch {
	case credential == "":
		return ""
	case len(credential) <= 4:
		return "****"
	default:
		return "****..." + credential[len(credential)-4:]
	}
}
