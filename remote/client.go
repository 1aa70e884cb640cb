// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client talks JSON over HTTP to the ranking backend. Token is called per
// request so a refreshed credential is picked up without rebuilding the
// client.
type Client struct {
	BaseURL  string
	Token    func(ctx context.Context) (string, error)
	DeviceID string
	HTTP     *http.Client
	logger   *slog.Logger
}

// NewClient builds a Client for baseURL. token supplies the bearer
// credential per request; deviceID identifies this installation to the
// backend.
func NewClient(baseURL string, token func(ctx context.Context) (string, error), deviceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:  baseURL,
		Token:    token,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != nil {
		token, err := c.Token(ctx)
		if err != nil {
			return fmt.Errorf("token for %s %s: %w", method, path, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.DeviceID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("backend rejected request",
			"method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type createResponse struct {
	RemoteID string `json:"remote_id"`
}

type listResponse struct {
	Rankings []RankingRecord `json:"rankings"`
}

func (c *Client) CreateRanking(ctx context.Context, r RankingRecord) (string, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/api/rankings", r, &resp); err != nil {
		return "", err
	}
	return resp.RemoteID, nil
}

func (c *Client) UpdateRanking(ctx context.Context, remoteID string, r RankingRecord) error {
	return c.do(ctx, http.MethodPut, "/api/rankings/"+remoteID, r, nil)
}

func (c *Client) DeleteRanking(ctx context.Context, remoteID string) error {
	return c.do(ctx, http.MethodDelete, "/api/rankings/"+remoteID, nil, nil)
}

func (c *Client) ListRankings(ctx context.Context) ([]RankingRecord, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/rankings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rankings, nil
}

func (c *Client) CreateItem(ctx context.Context, rankingRemoteID string, it ItemRecord) (string, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/api/rankings/"+rankingRemoteID+"/items", it, &resp); err != nil {
		return "", err
	}
	return resp.RemoteID, nil
}

func (c *Client) UpdateItem(ctx context.Context, remoteID string, it ItemRecord) error {
	return c.do(ctx, http.MethodPut, "/api/items/"+remoteID, it, nil)
}

func (c *Client) DeleteItem(ctx context.Context, remoteID string) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+remoteID, nil, nil)
}

var _ Backend = (*Client)(nil)

// Pinger reports the backend reachable when its health endpoint answers
// 200 within a short deadline. Failures are not errors, just "offline".
type Pinger struct {
	BaseURL string
	HTTP    *http.Client
}

func NewPinger(baseURL string) *Pinger {
	return &Pinger{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 3 * time.Second},
	}
}

func (p *Pinger) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

var _ Reachability = (*Pinger)(nil)
