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

	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

// persistTimeout bounds token store writes issued from Clear, which has no
// caller context.
const persistTimeout = 5 * time.Second

// Store holds the current session. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	session models.Session
	profile models.UserProfile
	tokens  TokenStore
}

// NewStore creates a store backed by tokens. A nil tokens keeps the token
// in memory only.
func NewStore(tokens TokenStore) *Store {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Store{tokens: tokens}
}

// Login records a successful login and persists the token.
func (s *Store) Login(ctx context.Context, token string, profile models.UserProfile) error {
	if token == "" {
		return ErrNoToken
	}

	uid := profile.UID
	if uid == 0 {
		if claims, err := ParseClaims(token); err == nil {
			uid = claims.UserID
		}
	}

	s.mu.Lock()
	s.session = models.Session{Authenticated: true, UserID: uid, Token: token}
	s.profile = profile
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	logging.Info().
		Int64("user_id", uid).
		Str("token", config.MaskCredential(token)).
		Msg("Session established")
	return nil
}

// LoadPersisted restores a token saved by an earlier run. The session is
// left unauthenticated; it reports false when no usable token was stored.
// A token whose exp claim has passed is discarded.
func (s *Store) LoadPersisted(ctx context.Context) (bool, error) {
	token, err := s.tokens.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load token: %w", err)
	}

	claims, err := ParseClaims(token)
	if err != nil {
		logging.Warn().Err(err).Msg("Stored token is not a readable JWT, keeping it for the profile check")
	} else if claims.Expired(time.Now()) {
		logging.Info().Time("expired_at", claims.ExpiresAt).Msg("Stored token has expired, discarding")
		if err := s.tokens.Delete(ctx); err != nil {
			return false, fmt.Errorf("delete expired token: %w", err)
		}
		return false, nil
	}

	s.mu.Lock()
	s.session = models.Session{Token: token, UserID: claims.UserID}
	s.mu.Unlock()
	return true, nil
}

// MarkAuthenticated confirms the session after a successful profile fetch.
func (s *Store) MarkAuthenticated(profile models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Token == "" {
		return
	}
	s.profile = profile
	if profile.UID != 0 {
		s.session.UserID = profile.UID
	}
	s.session.Authenticated = true
}

// Clear ends the session and deletes the persisted token.
func (s *Store) Clear() {
	s.mu.Lock()
	had := s.session.Token != ""
	s.session = models.Session{}
	s.profile = models.UserProfile{}
	s.mu.Unlock()

	if !had {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.tokens.Delete(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to delete persisted token")
	}
	logging.Info().Msg("Session cleared")
}

// Token returns the current token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// UserID returns the current user id, or 0 when unknown.
func (s *Store) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.UserID
}

// IsAuthenticated reports whether the session has been confirmed live.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated
}

// Profile returns the current user's profile.
func (s *Store) Profile() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Snapshot returns a copy of the session.
func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}
