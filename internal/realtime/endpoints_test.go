// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package realtime

import "testing"

func TestMessagingURL(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		token      string
		wantURL    string
		wantPublic string
		wantErr    bool
	}{
		{
			name:       "ws base",
			base:       "ws://localhost:7070",
			token:      "abc",
			wantURL:    "ws://localhost:7070/im?token=abc",
			wantPublic: "ws://localhost:7070/im",
		},
		{
			name:       "https base with trailing slash",
			base:       "https://example.com/ws/",
			token:      "a+b/c=",
			wantURL:    "wss://example.com/ws/im?token=a%2Bb%2Fc%3D",
			wantPublic: "wss://example.com/ws/im",
		},
		{name: "bad scheme", base: "ftp://example.com", token: "x", wantErr: true},
		{name: "no host", base: "ws://", token: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, public, err := MessagingURL(tt.base, tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MessagingURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.wantURL {
				t.Errorf("url = %q, want %q", got, tt.wantURL)
			}
			if public != tt.wantPublic {
				t.Errorf("public = %q, want %q", public, tt.wantPublic)
			}
		})
	}
}

func TestDanmuURL(t *testing.T) {
	got, err := DanmuURL("http://127.0.0.1:8080", "42")
	if err != nil {
		t.Fatalf("DanmuURL() error = %v", err)
	}
	if want := "ws://127.0.0.1:8080/danmu/42"; got != want {
		t.Errorf("DanmuURL() = %q, want %q", got, want)
	}

	got, err = DanmuURL("ws://h", "a b")
	if err != nil {
		t.Fatalf("DanmuURL() error = %v", err)
	}
	if want := "ws://h/danmu/a%20b"; got != want {
		t.Errorf("DanmuURL() = %q, want %q", got, want)
	}
}
