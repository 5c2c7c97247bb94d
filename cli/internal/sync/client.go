package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/zhaobenny/babylog/cli/internal/config"
	"github.com/zhaobenny/babylog/internal/model"
)

// Client handles syncing to the server
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// SyncRequest represents the sync API request body
type SyncRequest struct {
	ClientID   string      `json:"client_id"`
	ClientName string      `json:"client_name"`
	Rows       []model.Row `json:"rows"`
}

// SyncResponse represents the sync API response
type SyncResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	AcceptedEvents int    `json:"accepted_events"`
	SkippedRows    int    `json:"skipped_rows"`
	RejectedTokens int    `json:"rejected_tokens"`
	Error          string `json:"error,omitempty"`
}

// SyncStatusResponse represents the sync status response
type SyncStatusResponse struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewClient creates a new sync client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetSyncStatus gets the last sync time of this client from the server
func (c *Client) GetSyncStatus(ctx context.Context) (*time.Time, error) {
	u := fmt.Sprintf("%s/api/sync/status?client_id=%s", c.cfg.Server, url.QueryEscape(c.cfg.ClientID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var status SyncStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}

	if status.Error != "" {
		return nil, fmt.Errorf("%s", status.Error)
	}

	return status.LastSyncAt, nil
}

// Sync uploads the whole log table; the server replaces its previous copy
func (c *Client) Sync(ctx context.Context, rows []model.Row) (*SyncResponse, error) {
	// Get hostname for client name
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	data, err := json.Marshal(SyncRequest{
		ClientID:   c.cfg.ClientID,
		ClientName: hostname,
		Rows:       rows,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Server+"/api/sync", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var syncResp SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&syncResp); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if !syncResp.Success {
		errMsg := syncResp.Error
		if errMsg == "" {
			errMsg = syncResp.Message
		}
		return nil, fmt.Errorf("%s", errMsg)
	}

	return &syncResp, nil
}
