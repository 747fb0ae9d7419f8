package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/darwkzm/sopo/models"
)

var (
	// ErrLoadTimeout means the server did not answer within the load
	// timeout. Distinct from ErrUnreachable so the user sees which one hit.
	ErrLoadTimeout = errors.New("timed out loading roster data")

	// ErrUnreachable means the transport failed outright.
	ErrUnreachable = errors.New("roster service unreachable")

	// ErrRequestFailed means the server answered with a non-2xx status.
	ErrRequestFailed = errors.New("request rejected by roster service")
)

const defaultLoadTimeout = 10 * time.Second

// Client is a thin wrapper over the /api/data resource.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	loadTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLoadTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.loadTimeout = timeout }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		loadTimeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// mutationResponse is the consolidated POST/PUT response contract.
type mutationResponse struct {
	Success bool             `json:"success"`
	DB      *models.Document `json:"db"`
}

// FetchDocument loads the full document, bounded by the load timeout.
func (c *Client) FetchDocument(ctx context.Context) (*models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/data", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no response within %v", ErrLoadTimeout, c.loadTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, apiErrorMessage(resp))
	}

	var doc models.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: malformed document: %v", ErrRequestFailed, err)
	}
	doc.Normalize()
	return &doc, nil
}

// CreateRecord POSTs one record of the given kind and returns the updated
// document the server persisted.
func (c *Client) CreateRecord(ctx context.Context, kind string, payload interface{}) (*models.Document, error) {
	return c.sendMutation(ctx, http.MethodPost, kind, payload)
}

// ReplaceCollection PUTs a full replacement for the named collection.
func (c *Client) ReplaceCollection(ctx context.Context, collection string, payload interface{}) (*models.Document, error) {
	return c.sendMutation(ctx, http.MethodPut, collection, payload)
}

// StaffLogin trades the literal staff pair for a session token.
func (c *Client) StaffLogin(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/staff/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, apiErrorMessage(resp))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrRequestFailed, err)
	}
	return out.Token, nil
}

func (c *Client) sendMutation(ctx context.Context, method, tag string, payload interface{}) (*models.Document, error) {
	body, err := json.Marshal(map[string]interface{}{"type": tag, "payload": payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/data", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, apiErrorMessage(resp))
	}

	var out mutationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrRequestFailed, err)
	}
	if !out.Success || out.DB == nil {
		return nil, fmt.Errorf("%w: server reported failure", ErrRequestFailed)
	}
	out.DB.Normalize()
	return out.DB, nil
}

func apiErrorMessage(resp *http.Response) string {
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.Error != "" {
		return fmt.Sprintf("%s (status %d)", out.Error, resp.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
