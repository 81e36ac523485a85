// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/models"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{
		"uid":  42,
		"sub":  "alice",
		"role": 1,
		"exp":  exp.Unix(),
	})

	claims, err := ParseClaims(token)
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != 1 {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp)
	}
	if claims.Expired(time.Now()) {
		t.Error("fresh token reported expired")
	}
	if !claims.Expired(exp.Add(time.Minute)) {
		t.Error("token not expired after exp")
	}
}

func TestParseClaims_StringUID(t *testing.T) {
	claims, err := ParseClaims(signToken(t, jwt.MapClaims{"uid": "17"}))
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 17 {
		t.Errorf("UserID = %d, want 17", claims.UserID)
	}
	if claims.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Error("token without exp reported expired")
	}
}

func TestParseClaims_Malformed(t *testing.T) {
	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Error("ParseClaims(garbage) error = nil")
	}
}

func TestStore_LoginAndClear(t *testing.T) {
	tokens := NewMemoryTokenStore()
	s := NewStore(tokens)
	ctx := context.Background()

	if err := s.Login(ctx, "", models.UserProfile{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Login(empty) error = %v", err)
	}

	token := signToken(t, jwt.MapClaims{"uid": 9})
	if err := s.Login(ctx, token, models.UserProfile{UID: 9, Nickname: "nine"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !s.IsAuthenticated() || s.UserID() != 9 || s.Token() != token {
		t.Errorf("session = %+v", s.Snapshot())
	}
	if stored, _ := tokens.Load(ctx); stored != token {
		t.Error("token not persisted")
	}

	s.Clear()
	if s.IsAuthenticated() || s.Token() != "" || s.UserID() != 0 {
		t.Errorf("session after Clear = %+v", s.Snapshot())
	}
	if _, err := tokens.Load(ctx); !errors.Is(err, ErrNoToken) {
		t.Errorf("persisted token survived Clear: %v", err)
	}
}

func TestStore_LoginDerivesUserIDFromToken(t *testing.T) {
	s := NewStore(nil)
	token := signToken(t, jwt.MapClaims{"uid": 31})
	if err := s.Login(context.Background(), token, models.UserProfile{}); err != nil {
		t.Fatal(err)
	}
	if s.UserID() != 31 {
		t.Errorf("UserID() = %d, want 31", s.UserID())
	}
}

func TestStore_LoadPersisted(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		s := NewStore(NewMemoryTokenStore())
		ok, err := s.LoadPersisted(ctx)
		if err != nil || ok {
			t.Errorf("LoadPersisted() = %v, %v", ok, err)
		}
	})

	t.Run("live token is not yet authenticated", func(t *testing.T) {
		tokens := NewMemoryTokenStore()
		token := signToken(t, jwt.MapClaims{"uid": 5, "exp": time.Now().Add(time.Hour).Unix()})
		_ = tokens.Save(ctx, token)

		s := NewStore(tokens)
		ok, err := s.LoadPersisted(ctx)
		if err != nil || !ok {
			t.Fatalf("LoadPersisted() = %v, %v", ok, err)
		}
		if s.IsAuthenticated() {
			t.Error("restored session authenticated before profile fetch")
		}
		if s.UserID() != 5 || s.Token() != token {
			t.Errorf("session = %+v", s.Snapshot())
		}

		s.MarkAuthenticated(models.UserProfile{UID: 5, Nickname: "five"})
		if !s.IsAuthenticated() || s.Profile().Nickname != "five" {
			t.Errorf("after MarkAuthenticated: %+v %+v", s.Snapshot(), s.Profile())
		}
	})

	t.Run("expired token is discarded", func(t *testing.T) {
		tokens := NewMemoryTokenStore()
		_ = tokens.Save(ctx, signToken(t, jwt.MapClaims{"uid": 5, "exp": time.Now().Add(-time.Hour).Unix()}))

		s := NewStore(tokens)
		ok, err := s.LoadPersisted(ctx)
		if err != nil || ok {
			t.Fatalf("LoadPersisted() = %v, %v", ok, err)
		}
		if _, err := tokens.Load(ctx); !errors.Is(err, ErrNoToken) {
			t.Error("expired token left in store")
		}
	})
}

func TestStore_MarkAuthenticatedWithoutToken(t *testing.T) {
	s := NewStore(nil)
	s.MarkAuthenticated(models.UserProfile{UID: 1})
	if s.IsAuthenticated() {
		t.Error("session authenticated without a token")
	}
}

func TestBadgerTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	enc, err := config.NewCredentialEncryptor("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	store := NewBadgerTokenStore(openTestBadger(t), enc)

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() on empty store error = %v", err)
	}
	if err := store.Save(ctx, "tok-123"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil || got != "tok-123" {
		t.Fatalf("Load() = %q, %v", got, err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoToken) {
		t.Errorf("Load() after Delete error = %v", err)
	}
}

func TestBadgerTokenStore_RotatedSecret(t *testing.T) {
	ctx := context.Background()
	db := openTestBadger(t)
	enc, _ := config.NewCredentialEncryptor("old")
	rotated, _ := config.NewCredentialEncryptor("new")

	if err := NewBadgerTokenStore(db, enc).Save(ctx, "tok"); err != nil {
		t.Fatal(err)
	}
	_, err := NewBadgerTokenStore(db, rotated).Load(ctx)
	if !errors.Is(err, config.ErrDecryptionFailed) {
		t.Errorf("Load() under rotated secret error = %v", err)
	}
}

func TestOpenTokenStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SessionConfig
		wantErr bool
	}{
		{"memory", config.SessionConfig{Store: "memory"}, false},
		{"default", config.SessionConfig{}, false},
		{"badger in memory", config.SessionConfig{Store: "badger", TokenSecret: "s"}, false},
		{"badger without secret", config.SessionConfig{Store: "badger"}, true},
		{"unknown", config.SessionConfig{Store: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			store, closer, err := OpenTokenStore(&cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenTokenStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			defer closer()
			if err == nil && store == nil {
				t.Error("nil store without error")
			}
		})
	}
}
