// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

type staticTokens struct {
	token string
	uid   int64
}

func (s staticTokens) Token() string { return s.token }
func (s staticTokens) UserID() int64 { return s.uid }

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.APIConfig{
		BaseURL:         srv.URL + "/",
		Timeout:         5 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}
	return NewClient(cfg, tokens, WithRetry(2, time.Millisecond))
}

// writeEnvelope writes {"code","message","data"} with HTTP 200.
func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, message string, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"code": code, "message": message, "data": data}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode envelope: %v", err)
	}
}

func TestLogin_SendsFormAndDecodesResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must be anonymous, got Authorization %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret" {
			t.Errorf("form = %v", r.PostForm)
		}
		writeEnvelope(t, w, 200, "操作成功", map[string]any{
			"token":     "tok-1",
			"tokenType": "Bearer",
			"expiresIn": 86400,
			"user":      map[string]any{"uid": 7, "nickname": "Alice", "avatar": "a.png"},
		})
	})

	c := newTestClient(t, mux, nil)
	res, err := c.Login(context.Background(), Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token != "tok-1" || res.ExpiresIn != 86400 {
		t.Errorf("result = %+v", res)
	}
	if res.Profile.UID != 7 || res.Profile.Nickname != "Alice" || res.Profile.Avatar != "a.png" {
		t.Errorf("profile = %+v", res.Profile)
	}
}

func TestLogin_InvalidCredentialsNeverReachServer(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), nil)

	_, err := c.Login(context.Background(), Credentials{Username: "", Password: "x"})
	var perr *validation.PayloadError
	if !errors.As(err, &perr) {
		t.Fatalf("Login() error = %v, want *validation.PayloadError", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times", hits.Load())
	}
}

func TestLogin_BusinessError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, 500, "登录失败: 密码错误", nil)
	}), nil)

	_, err := c.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error = %v, want *Error", err)
	}
	if apiErr.Code != 500 || apiErr.Message != "登录失败: 密码错误" {
		t.Errorf("error = %+v", apiErr)
	}
	if IsUnauthorized(err) {
		t.Error("business error reported as unauthorized")
	}
}

func TestAuthenticatedCall_WithoutToken(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), staticTokens{})

	_, err := c.PersonalInfo(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("PersonalInfo() error = %v, want ErrNoToken", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times", hits.Load())
	}
}

func TestUnauthorized(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "envelope 401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(t, w, 401, "未登录", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler, staticTokens{token: "tok", uid: 1})
			_, err := c.PersonalInfo(context.Background())
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("error = %v, want ErrUnauthorized", err)
			}
			if !IsUnauthorized(err) {
				t.Error("IsUnauthorized() = false")
			}
		})
	}
}

func TestRequest_CarriesBearerAndUID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("uid"); got != "42" {
			t.Errorf("uid header = %q", got)
		}
		if r.URL.Path != "/api/msg/unread/clear" || r.URL.Query().Get("category") != "whisper" {
			t.Errorf("request = %s %s", r.Method, r.URL)
		}
		writeEnvelope(t, w, 200, "清除成功", nil)
	}), staticTokens{token: "tok", uid: 42})

	if err := c.ClearUnread(context.Background(), 4); err != nil {
		t.Fatalf("ClearUnread() error = %v", err)
	}
}

func TestHTTPErrorUsesEnvelopeMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":403,"message":"需要管理员权限"}`))
	}), staticTokens{token: "tok"})

	err := c.ApproveVideo(context.Background(), 5)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Status != 403 || apiErr.Code != 403 || apiErr.Message != "需要管理员权限" {
		t.Errorf("error = %+v", apiErr)
	}
	if apiErr.Temporary() {
		t.Error("403 must not be temporary")
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeEnvelope(t, w, 200, "ok", []any{})
	}), nil)

	list, err := c.DanmuList(context.Background(), 3)
	if err != nil {
		t.Fatalf("DanmuList() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len = %d", len(list))
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), staticTokens{token: "tok"})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.PersonalInfo(ctx); err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d: error = %v, want backend error", i, err)
		}
	}
	if c.BreakerState() != "open" {
		t.Fatalf("BreakerState() = %q, want open", c.BreakerState())
	}

	_, err := c.PersonalInfo(ctx)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestBreaker_IgnoresBusinessErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, 500, "清除失败", nil)
	}), staticTokens{token: "tok"})

	for i := 0; i < 6; i++ {
		err := c.ClearUnread(context.Background(), 0)
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d: circuit opened on business errors", i)
		}
	}
	if c.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %q, want closed", c.BreakerState())
	}
}
