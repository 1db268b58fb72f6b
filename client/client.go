package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/helpers"
	"github.com/spektr-org/equipdash/store"
)

// ============================================================================
// API CLIENT — Calls the dashboard HTTP API
// ============================================================================
// One method per endpoint the dashboard screens use. Every call takes a
// context; non-2xx responses come back as *APIError carrying the server's
// "error" message.
// ============================================================================

// Config holds client configuration.
type Config struct {
	BaseURL string        // e.g. "http://localhost:8080/api/v1"
	Timeout time.Duration // 0 = 30s
}

// Client talks to the dashboard API.
type Client struct {
	config Config
	http   *http.Client
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Message        string               `json:"message"`
	Upload         store.Upload         `json:"upload"`
	EquipmentCount int                  `json:"equipment_count"`
	Summary        engine.SummaryStats  `json:"summary"`
	Report         *helpers.ParseReport `json:"report"`
}

type dataResponse struct {
	Upload    *store.Upload            `json:"upload"`
	Equipment []engine.EquipmentRecord `json:"equipment"`
}

// FetchRecords returns an upload and its records. An empty id asks for the
// newest upload; upload is nil when the server has none.
func (c *Client) FetchRecords(ctx context.Context, uploadID string) (*store.Upload, []engine.EquipmentRecord, error) {
	var resp dataResponse
	if err := c.get(ctx, "/data", uploadQuery(uploadID), &resp); err != nil {
		return nil, nil, err
	}
	if resp.Equipment == nil {
		resp.Equipment = []engine.EquipmentRecord{}
	}
	return resp.Upload, resp.Equipment, nil
}

// FetchSummary returns the server-computed summary for an upload.
func (c *Client) FetchSummary(ctx context.Context, uploadID string) (engine.SummaryStats, error) {
	var summary engine.SummaryStats
	if err := c.get(ctx, "/summary", uploadQuery(uploadID), &summary); err != nil {
		return engine.SummaryStats{}, err
	}
	if summary.TypeDistribution == nil {
		summary.TypeDistribution = map[string]int{}
	}
	return summary, nil
}

// FetchHistory lists recent uploads, newest first. limit <= 0 uses the
// server default.
func (c *Client) FetchHistory(ctx context.Context, limit int) ([]store.Upload, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var uploads []store.Upload
	if err := c.get(ctx, "/history", q, &uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

// Upload sends a CSV file as multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp UploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	log.Printf("📤 Uploaded %s: %d records", filename, resp.EquipmentCount)
	return &resp, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func uploadQuery(uploadID string) url.Values {
	q := url.Values{}
	if uploadID != "" {
		q.Set("upload_id", uploadID)
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.config.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := truncate(string(body), 200)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
