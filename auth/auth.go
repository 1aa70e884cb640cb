// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

// Package auth issues and validates the HS256 tokens the sync client
// presents to the backend. The subject names the owner; a device claim
// ties the token to one installation.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "ranked"

// Claims carried by a sync token.
type Claims struct {
	DeviceID string `json:"did"`
	jwt.RegisteredClaims
}

// Mint signs a token for owner on deviceID, valid for ttl.
func Mint(secret, owner, deviceID string, ttl time.Duration) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("mint token: owner is required")
	}
	if deviceID == "" {
		return "", fmt.Errorf("mint token: device id is required")
	}
	now := time.Now()
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims. Tokens signed with
// anything but HMAC are rejected before signature verification.
func Parse(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("parse token: invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("parse token: missing subject")
	}
	if claims.DeviceID == "" {
		return nil, fmt.Errorf("parse token: missing device id")
	}
	return claims, nil
}
