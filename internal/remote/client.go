// Package remote is the HTTP implementation of source.DataSource.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/wuxia-session/internal/logger"
	"github.com/jwebster45206/wuxia-session/pkg/combat"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

// RequestIDHeader carries a fresh id on every request.
const RequestIDHeader = source.RequestIDHeader

// ErrorResponse is the error body the server sends with non-2xx statuses.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusError is returned for non-2xx responses other than 401 and 403.
type StatusError struct {
	Code    int
	Message string
}

var _ source.Failure = (*StatusError)(nil)

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Message)
}

// FailureMessage returns the message the server put in the error body.
func (e *StatusError) FailureMessage() string {
	return e.Message
}

// Client talks to the game server over JSON/HTTP.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

var _ source.DataSource = (*Client)(nil)

// NewClient creates a client. token is sent as a bearer credential when set.
func NewClient(baseURL, token string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+source.PathHealth, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) FetchLatestRound(ctx context.Context) (*source.LatestRound, error) {
	var out source.LatestRound
	if err := c.do(ctx, http.MethodGet, source.PathLatestRound, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch latest round: %w", err)
	}
	if out.Round == nil {
		return nil, fmt.Errorf("latest round: missing roundData: %w", source.ErrProtocolShape)
	}
	return &out, nil
}

func (c *Client) SubmitAction(ctx context.Context, req source.ActionRequest) (*source.ActionResponse, error) {
	var out source.ActionResponse
	if err := c.do(ctx, http.MethodPost, source.PathInteract, req, &out); err != nil {
		return nil, fmt.Errorf("failed to submit action: %w", err)
	}
	return &out, nil
}

func (c *Client) SubmitCombatAction(ctx context.Context, intent combat.Intent) (*source.CombatResponse, error) {
	var out source.CombatResponse
	if err := c.do(ctx, http.MethodPost, source.PathCombatAction, intent, &out); err != nil {
		return nil, fmt.Errorf("failed to submit combat action: %w", err)
	}
	return &out, nil
}

func (c *Client) SubmitSurrender(ctx context.Context) (*source.SurrenderResponse, error) {
	var out source.SurrenderResponse
	if err := c.do(ctx, http.MethodPost, source.PathSurrender, struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("failed to surrender: %w", err)
	}
	return &out, nil
}

func (c *Client) FetchInventory(ctx context.Context) ([]state.InventoryItem, error) {
	var out struct {
		Inventory []state.InventoryItem `json:"inventory"`
	}
	if err := c.do(ctx, http.MethodGet, source.PathInventory, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch inventory: %w", err)
	}
	return out.Inventory, nil
}

type itemRequest struct {
	InstanceID string `json:"instanceId"`
}

func (c *Client) EquipItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return c.inventoryCall(ctx, "equip", source.PathEquip, instanceID)
}

func (c *Client) UnequipItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return c.inventoryCall(ctx, "unequip", source.PathUnequip, instanceID)
}

func (c *Client) DropItem(ctx context.Context, instanceID string) (*source.InventoryResponse, error) {
	return c.inventoryCall(ctx, "drop", source.PathDrop, instanceID)
}

func (c *Client) inventoryCall(ctx context.Context, op, path, instanceID string) (*source.InventoryResponse, error) {
	var out source.InventoryResponse
	if err := c.do(ctx, http.MethodPost, path, itemRequest{InstanceID: instanceID}, &out); err != nil {
		return nil, fmt.Errorf("failed to %s item: %w", op, err)
	}
	return &out, nil
}

func (c *Client) StartCultivation(ctx context.Context, times int) (*source.ActionResponse, error) {
	body := struct {
		Times int `json:"times"`
	}{Times: times}
	var out source.ActionResponse
	if err := c.do(ctx, http.MethodPost, source.PathCultivation, body, &out); err != nil {
		return nil, fmt.Errorf("failed to start cultivation: %w", err)
	}
	return &out, nil
}

func (c *Client) ForceSuicide(ctx context.Context) (*source.ActionResponse, error) {
	var out source.ActionResponse
	if err := c.do(ctx, http.MethodPost, source.PathSuicide, struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("failed to force suicide: %w", err)
	}
	return &out, nil
}

// do sends one JSON request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := logger.WithRequestID(c.logger, requestID)
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	log.Debug("API request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("API returned status %d: %w", resp.StatusCode, source.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w: %w", source.ErrProtocolShape, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err == nil {
		if errorResp.Error != "" {
			return errorResp.Error
		}
		if errorResp.Message != "" {
			return errorResp.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "no error message"
	}
	return text
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
