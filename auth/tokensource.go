// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"sync"
	"time"
)

// renewMargin is how long before expiry a cached token is considered
// stale. Keeps in-flight requests from racing the expiry.
const renewMargin = 30 * time.Second

// TokenSource hands out a token for one owner/device pair, minting a
// fresh one when the cached token is absent or close to expiry. Safe for
// concurrent use.
type TokenSource struct {
	Secret   string
	Owner    string
	DeviceID string
	TTL      time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource returns a TokenSource minting ttl-lived tokens.
func NewTokenSource(secret, owner, deviceID string, ttl time.Duration) *TokenSource {
	return &TokenSource{Secret: secret, Owner: owner, DeviceID: deviceID, TTL: ttl}
}

// Token returns a currently-valid token, minting one if needed.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expires.Add(-renewMargin)) {
		return ts.token, nil
	}
	token, err := Mint(ts.Secret, ts.Owner, ts.DeviceID, ts.TTL)
	if err != nil {
		return "", err
	}
	ts.token = token
	ts.expires = time.Now().Add(ts.TTL)
	return token, nil
}
