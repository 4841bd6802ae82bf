// Package homebox is a REST client for the Homebox inventory API. It
// implements inventory.Service.
package homebox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/inventory"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned when no credentials are configured or the
// login response carries no token.
var ErrNotAuthenticated = errors.New("homebox: not authenticated")

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("homebox: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("homebox: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Location is an entry of the flat location listing.
type Location struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemCount   int       `json:"itemCount,omitempty"`
}

// LocationDetails is a single location with its parent.
type LocationDetails struct {
	ID          uuid.UUID                  `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Parent      *inventory.LocationSummary `json:"parent,omitempty"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type locationCreateRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
}

type itemCreateRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LocationID  uuid.UUID `json:"locationId"`
}

type itemPatchRequest struct {
	Quantity int `json:"quantity"`
}

// Client talks to one Homebox instance with one user's credentials. The
// token is fetched lazily and dropped on 401 so the next call logs in again.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *zap.Logger

	mu    sync.Mutex
	token string
}

var _ inventory.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a client from config. It does not contact the server.
func NewClient(cfg config.HomeboxConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout()},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges the credentials for a token and caches it.
func (c *Client) Login(ctx context.Context) error {
	_, err := c.login(ctx)
	return err
}

func (c *Client) login(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrNotAuthenticated)
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/users/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out loginResponse
	if err := c.roundTrip(req, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty token in login response", ErrNotAuthenticated)
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	c.logger.Debug("homebox login succeeded", zap.String("user", c.username))
	return out.Token, nil
}

func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.login(ctx)
}

// do sends an authenticated JSON request. in may be nil; out may be nil to
// discard the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	token, err := c.authToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	err = c.roundTrip(req, out)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		if c.token == token {
			c.token = ""
		}
		c.mu.Unlock()
	}
	return err
}

func (c *Client) roundTrip(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("homebox request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// GetLocationTree fetches the whole tree. With rootHint the result is the
// single subtree rooted at that node, or empty when it does not exist.
func (c *Client) GetLocationTree(ctx context.Context, rootHint *uuid.UUID, includeItems bool) ([]inventory.TreeNode, error) {
	query := url.Values{}
	if includeItems {
		query.Set("withItems", "true")
	}

	var tree []inventory.TreeNode
	if err := c.do(ctx, http.MethodGet, "/api/v1/locations/tree", query, nil, &tree); err != nil {
		return nil, err
	}
	if rootHint == nil {
		return tree, nil
	}
	node, ok := inventory.FindByID(tree, *rootHint)
	if !ok {
		return []inventory.TreeNode{}, nil
	}
	return []inventory.TreeNode{node}, nil
}

// ListLocations returns every location as a flat list.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var out []Location
	if err := c.do(ctx, http.MethodGet, "/api/v1/locations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLocation returns one location with its parent.
func (c *Client) GetLocation(ctx context.Context, id uuid.UUID) (LocationDetails, error) {
	var out LocationDetails
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+id.String(), nil, nil, &out)
	return out, err
}

func (c *Client) CreateLocation(ctx context.Context, name string, parentID *uuid.UUID, description string) (inventory.LocationSummary, error) {
	if strings.TrimSpace(name) == "" {
		return inventory.LocationSummary{}, errors.New("location name must not be blank")
	}
	var out inventory.LocationSummary
	err := c.do(ctx, http.MethodPost, "/api/v1/locations", nil,
		locationCreateRequest{Name: name, Description: description, ParentID: parentID}, &out)
	return out, err
}

func (c *Client) CreateItem(ctx context.Context, name string, locationID uuid.UUID, description string) (inventory.ItemSummary, error) {
	if strings.TrimSpace(name) == "" {
		return inventory.ItemSummary{}, errors.New("item name must not be blank")
	}
	var out inventory.ItemSummary
	err := c.do(ctx, http.MethodPost, "/api/v1/items", nil,
		itemCreateRequest{Name: name, Description: description, LocationID: locationID}, &out)
	return out, err
}

func (c *Client) SetItemQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return c.do(ctx, http.MethodPatch, "/api/v1/items/"+id.String(), nil, itemPatchRequest{Quantity: quantity}, nil)
}

func (c *Client) GetItem(ctx context.Context, id uuid.UUID) (inventory.ItemSummary, error) {
	var out inventory.ItemSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/items/"+id.String(), nil, nil, &out)
	return out, err
}
