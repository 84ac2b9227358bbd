package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// Client is a thin REST client for the sentinel API. It carries the session
// token and speaks the {success, data, message} envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken seeds the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates an API client for the given base URL (e.g. http://localhost:8080)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the session token, typically after a sign-in
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current session token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope is the wire shape every endpoint responds with
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	ErrorType  string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.ErrorType)
}

// do sends a JSON request and decodes the envelope's data field into out.
// A nil out discards the data.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, ErrorType: env.Error, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// sessionPayload mirrors the handlers' SessionResponse
type sessionPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// SignUp creates an account and stores the returned session token
func (c *Client) SignUp(ctx context.Context, email, password string, name *string) (*models.User, error) {
	var session sessionPayload
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]any{
		"email": email, "password": password, "name": name,
	}, &session)
	if err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return session.User, nil
}

// SignIn authenticates and stores the returned session token
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var session sessionPayload
	err := c.do(ctx, http.MethodPost, "/api/auth/signin", map[string]any{
		"email": email, "password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return session.User, nil
}

// SignOut revokes the session token and clears it from the client
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me returns the account behind the current token
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEmails lists the mailbox behind the suggestion pipeline
func (c *Client) ListEmails(ctx context.Context) ([]models.Email, error) {
	var emails []models.Email
	if err := c.do(ctx, http.MethodGet, "/api/emails", nil, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// TriggerEmailSync asks the server to scan the mailbox in the background
func (c *Client) TriggerEmailSync(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/emails/sync", nil, nil)
}

// ListSuggestions returns the current suggestion inbox
func (c *Client) ListSuggestions(ctx context.Context) ([]models.SuggestedTask, error) {
	var suggestions []models.SuggestedTask
	if err := c.do(ctx, http.MethodGet, "/api/suggestions", nil, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// AcceptSuggestion converts a suggestion into a task
func (c *Client) AcceptSuggestion(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/api/suggestions/"+id+"/accept", nil, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DismissSuggestion drops a suggestion
func (c *Client) DismissSuggestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/suggestions/"+id, nil, nil)
}
