// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/validation"
)

// Credentials is a login request.
type Credentials struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResult is what a successful login returns.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresIn int64
	Profile   models.UserProfile
}

// account is the user record as the account endpoints return it. The
// avatar key differs from the chat payloads.
type account struct {
	UID       int64  `json:"uid"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	AvatarURL string `json:"avatar_url"`
	Auth      int    `json:"auth"`
}

func (a account) profile() models.UserProfile {
	avatar := a.Avatar
	if avatar == "" {
		avatar = a.AvatarURL
	}
	return models.UserProfile{UID: a.UID, Nickname: a.Nickname, Avatar: avatar, Auth: a.Auth}
}

type loginResponse struct {
	User      account `json:"user"`
	Token     string  `json:"token"`
	TokenType string  `json:"tokenType"`
	ExpiresIn int64   `json:"expiresIn"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := validation.Validate(creds); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var resp loginResponse
	err := c.do(ctx, requestConfig{
		method:    http.MethodPost,
		path:      "/api/user/login",
		form:      url.Values{"username": {creds.Username}, "password": {creds.Password}},
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login: %w", &Error{Status: http.StatusOK, Code: models.EnvelopeCodeOK, Message: "response carries no token"})
	}

	return &LoginResult{
		Token:     resp.Token,
		TokenType: resp.TokenType,
		ExpiresIn: resp.ExpiresIn,
		Profile:   resp.User.profile(),
	}, nil
}

// PersonalInfo fetches the profile of the session's user. It is the call
// that confirms a restored token is still accepted.
func (c *Client) PersonalInfo(ctx context.Context) (models.UserProfile, error) {
	var a account
	if err := c.do(ctx, requestConfig{
		method: http.MethodGet,
		path:   "/api/user/personal/info",
	}, &a); err != nil {
		return models.UserProfile{}, fmt.Errorf("personal info: %w", err)
	}
	return a.profile(), nil
}
