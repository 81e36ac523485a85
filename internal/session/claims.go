// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity the backend embeds in its access token.
type Claims struct {
	UserID    int64
	Username  string
	Role      int
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim lies before now. A token
// without exp never expires locally.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims reads the token's claims without verifying the signature.
// The client has no signing key; the server still verifies every request.
// This only makes the user id available before the profile fetch returns.
func ParseClaims(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("parse token claims: %w", err)
	}

	claims := Claims{
		UserID:   intClaim(mapClaims, "uid"),
		Username: stringClaim(mapClaims, "sub"),
		Role:     int(intClaim(mapClaims, "role")),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// intClaim accepts JSON numbers and numeric strings.
func intClaim(claims jwt.MapClaims, key string) int64 {
	switch v := claims[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}
