package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPCatalog registers written files against a REST-style table
// registrar over HTTP — a thin, swappable default for the §6 Catalog
// interface, not a specific catalog product.
type HTTPCatalog struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPCatalog constructs an HTTPCatalog with a bounded-timeout client,
// since catalog registration must never stall the write path.
func NewHTTPCatalog(baseURL string) *HTTPCatalog {
	return &HTTPCatalog{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

type registerRequest struct {
	Table     string `json:"table"`
	Key       string `json:"key"`
	Rows      int    `json:"rows"`
	SizeBytes int64  `json:"size_bytes"`
}

// Register POSTs the file's metadata to {BaseURL}/register.
func (c *HTTPCatalog) Register(ctx context.Context, table, key string, rows int, sizeBytes int64) error {
	body, err := json.Marshal(registerRequest{Table: table, Key: key, Rows: rows, SizeBytes: sizeBytes})
	if err != nil {
		return fmt.Errorf("catalog: failed to marshal register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("catalog: failed to build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: register request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("catalog: register returned status %d", resp.StatusCode)
	}
	return nil
}
