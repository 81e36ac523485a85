// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/temimi-realtime/internal/config"
)

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("no session token")

// TokenStore persists the session token between runs.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// StoreType names a TokenStore backend in configuration.
type StoreType string

const (
	// StoreMemory keeps the token for the lifetime of the process.
	StoreMemory StoreType = "memory"

	// StoreBadger keeps the token in a local BadgerDB directory.
	StoreBadger StoreType = "badger"
)

// MemoryTokenStore is a non-durable TokenStore.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load implements TokenStore.
func (m *MemoryTokenStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

// Save implements TokenStore.
func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// Delete implements TokenStore.
func (m *MemoryTokenStore) Delete(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// Key layout in the token database.
const tokenKey = "session:token"

// tokenRecord is the JSON value stored under tokenKey. Sealed holds the
// encrypted token.
type tokenRecord struct {
	Sealed  []byte    `json:"sealed"`
	SavedAt time.Time `json:"saved_at"`
}

// BadgerTokenStore keeps the token sealed in BadgerDB.
type BadgerTokenStore struct {
	db  *badger.DB
	enc *config.CredentialEncryptor
}

// NewBadgerTokenStore wraps an open database. enc must not be nil.
func NewBadgerTokenStore(db *badger.DB, enc *config.CredentialEncryptor) *BadgerTokenStore {
	return &BadgerTokenStore{db: db, enc: enc}
}

// OpenBadger opens (or creates) the token database at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	return db, nil
}

// Load implements TokenStore.
func (s *BadgerTokenStore) Load(_ context.Context) (string, error) {
	var rec tokenRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoToken
		}
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return "", err
	}

	plain, err := s.enc.Open(rec.Sealed)
	if err != nil {
		return "", fmt.Errorf("open stored token: %w", err)
	}
	return string(plain), nil
}

// Save implements TokenStore.
func (s *BadgerTokenStore) Save(_ context.Context, token string) error {
	sealed, err := s.enc.Seal([]byte(token))
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	data, err := json.Marshal(tokenRecord{Sealed: sealed, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tokenKey), data)
	})
}

// Delete implements TokenStore.
func (s *BadgerTokenStore) Delete(_ context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(tokenKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete token: %w", err)
		}
		return nil
	})
}

// OpenTokenStore builds the configured TokenStore. The returned closer
// releases the database, if one was opened.
func OpenTokenStore(cfg *config.SessionConfig) (TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch StoreType(cfg.Store) {
	case StoreMemory, "":
		return NewMemoryTokenStore(), noop, nil
	case StoreBadger:
		enc, err := config.NewCredentialEncryptor(cfg.TokenSecret)
		if err != nil {
			return nil, noop, err
		}
		db, err := OpenBadger(cfg.StorePath)
		if err != nil {
			return nil, noop, err
		}
		return NewBadgerTokenStore(db, enc), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
