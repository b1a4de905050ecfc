// Package supabase talks to the remote Supabase REST API that mirrors
// translation history for signed-in users.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// HistoryRow is one row of the remote translation_history table.
type HistoryRow struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// Client issues authenticated requests against a Supabase project.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewClient builds a client for the project at baseURL. anonKey is the
// project's public API key.
func NewClient(baseURL, anonKey string, client *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase base URL is required")
	}
	if strings.TrimSpace(anonKey) == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, anonKey: anonKey, client: client}, nil
}

// InsertHistory appends a row to translation_history. accessToken is
// the signed-in user's JWT; the anon key is used when it is empty.
func (c *Client) InsertHistory(ctx context.Context, accessToken string, row HistoryRow) error {
	if c == nil {
		return fmt.Errorf("supabase client is not initialized")
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal history row: %w", err)
	}

	endpoint := c.baseURL + "/rest/v1/translation_history"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build supabase request: %w", err)
	}

	token := strings.TrimSpace(accessToken)
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
