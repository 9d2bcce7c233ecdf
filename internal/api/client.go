// Package api is the request/response client the consoles use against the
// gatepass server: snapshot fetches that seed and gap-recover the live
// store, and the approve/reject/cancel/checkout actions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gatepass/internal/domain"
	"gatepass/internal/live"
	"gatepass/pkg/logger"
)

// Client talks to the gatepass REST API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// NewClient builds a client for the given base URL (no trailing slash).
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// apiError is the error envelope the server returns on non-2xx statuses.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// visitEnvelope and listEnvelope mirror the server's response bodies.
type visitEnvelope struct {
	Visit *domain.Visit `json:"visit"`
}

type listEnvelope struct {
	Visits []domain.Visit `json:"visits"`
	Count  int            `json:"count"`
}

// PendingVisits fetches the authoritative pending list.
func (c *Client) PendingVisits(ctx context.Context) ([]domain.Visit, error) {
	var resp listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/visits/pending", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch pending visits: %w", err)
	}
	return resp.Visits, nil
}

// TodayVisits fetches today's visit list, terminal statuses included.
func (c *Client) TodayVisits(ctx context.Context) ([]domain.Visit, error) {
	var resp listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/visits/today", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch today visits: %w", err)
	}
	return resp.Visits, nil
}

// Refresh seeds the store from both snapshot endpoints. Called on startup
// and whenever the connection manager recovers from a reconnect gap, after
// which replayed events are harmless no-ops.
func (c *Client) Refresh(ctx context.Context, store *live.Store) error {
	pending, err := c.PendingVisits(ctx)
	if err != nil {
		return err
	}
	today, err := c.TodayVisits(ctx)
	if err != nil {
		return err
	}
	store.Seed(pending, today)
	return nil
}

// CreateVisitRequest is the guard-side new-visitor flow.
type CreateVisitRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
	OwnerID  string `json:"owner_id"`
	Purpose  string `json:"purpose"`
	QRToken  string `json:"qr_token,omitempty"`
}

// CreateVisit registers a new visit at the gate.
func (c *Client) CreateVisit(ctx context.Context, req CreateVisitRequest) (*domain.Visit, error) {
	var resp visitEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/visits", req, &resp); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return resp.Visit, nil
}

// Approve marks a pending visit approved.
func (c *Client) Approve(ctx context.Context, visitID string) (*domain.Visit, error) {
	return c.patchStatus(ctx, visitID, "approve")
}

// Reject marks a pending visit rejected.
func (c *Client) Reject(ctx context.Context, visitID string) (*domain.Visit, error) {
	return c.patchStatus(ctx, visitID, "reject")
}

// Cancel withdraws a still-pending visit at the gate.
func (c *Client) Cancel(ctx context.Context, visitID string) (*domain.Visit, error) {
	return c.patchStatus(ctx, visitID, "cancel")
}

// Checkout records the visitor's exit.
func (c *Client) Checkout(ctx context.Context, visitID string) (*domain.Visit, error) {
	return c.patchStatus(ctx, visitID, "checkout")
}

func (c *Client) patchStatus(ctx context.Context, visitID, action string) (*domain.Visit, error) {
	var resp visitEnvelope
	path := fmt.Sprintf("/api/visits/%s/%s", visitID, action)
	if err := c.do(ctx, http.MethodPatch, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("%s visit %s: %w", action, visitID, err)
	}
	return resp.Visit, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(map[string]interface{}{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("request rejected")
		var envelope apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, envelope.Error.Message)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
