// Package backend is the client for the FinScholars back-end: authentication,
// module content, and result persistence.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang/glog"
)

// DefaultTimeout matches the front-end API client.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// DefaultConfig returns the client defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    DefaultTimeout,
		RetryCount: 2,
		RetryWait:  500 * time.Millisecond,
	}
}

// Client talks to the back-end over HTTP. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New creates a client. Requests that fail at the transport level or with
// a 5xx status are retried.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: h}
}

type tokenKey struct{}

// WithToken returns a context whose requests carry the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token attached to ctx.
func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// envelope is the common response wrapper. Errors come back either as
// {success:false, error} or as {message, status}.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if tok := TokenFrom(ctx); tok != "" {
		r.SetAuthToken(tok)
	}
	return r
}

// do sends the request and decodes a successful body into out.
func (c *Client) do(r *resty.Request, method, path string, out any) error {
	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	glog.V(2).Infof("backend %s %s -> %d (%s)", method, path, resp.StatusCode(), resp.Time())

	body := resp.Body()
	var env envelope
	_ = json.Unmarshal(body, &env)

	if resp.IsError() || (env.Success != nil && !*env.Success) {
		return newAPIError(resp.StatusCode(), env, resp.String())
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	IsNewUser bool   `json:"is_new_user"`
}

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	UserData map[string]any `json:"user_data,omitempty"`
}

// Signup registers a new user.
func (c *Client) Signup(ctx context.Context, email, password string, userData map[string]any) (*AuthResult, error) {
	var out AuthResult
	r := c.request(ctx).SetBody(credentials{Email: email, Password: password, UserData: userData})
	if err := c.do(r, http.MethodPost, "/api/user/signup", &out); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &out, nil
}

// Login authenticates an existing user.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	r := c.request(ctx).SetBody(credentials{Email: email, Password: password})
	if err := c.do(r, http.MethodPost, "/api/user/login", &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// Logout ends the back-end session of the token in ctx.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(c.request(ctx), http.MethodPost, "/api/user/logout", nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// User is the back-end profile of the current user.
type User struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email"`
	DisplayName        string   `json:"display_name"`
	Interests          []string `json:"interests"`
	Modules            []string `json:"modules"`
	Badges             []string `json:"badges"`
	ProgressPercentage float64  `json:"progress_percentage"`
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(c.request(ctx), http.MethodGet, "/api/user/me", &out); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &out.User, nil
}

// ResultPayload is a finalized attempt result as the back-end stores it.
type ResultPayload struct {
	AttemptID  string    `json:"attempt_id"`
	UserID     string    `json:"user_id"`
	ModuleID   string    `json:"module_id"`
	Level      string    `json:"level"`
	Percentage float64   `json:"percentage"`
	Passed     bool      `json:"passed"`
	FinishedAt time.Time `json:"finished_at"`
}

// SaveResult persists a finalized attempt result.
func (c *Client) SaveResult(ctx context.Context, p ResultPayload) error {
	if err := c.do(c.request(ctx).SetBody(p), http.MethodPost, "/api/progress/results", nil); err != nil {
		return fmt.Errorf("save result %s: %w", p.AttemptID, err)
	}
	return nil
}

// FetchModule returns the raw JSON of one module.
func (c *Client) FetchModule(ctx context.Context, id string) ([]byte, error) {
	var out struct {
		Module json.RawMessage `json:"module"`
	}
	path := "/api/get-module/" + url.PathEscape(id)
	if err := c.do(c.request(ctx), http.MethodGet, path, &out); err != nil {
		return nil, fmt.Errorf("fetch module %q: %w", id, err)
	}
	if len(out.Module) == 0 {
		return nil, fmt.Errorf("fetch module %q: response has no module", id)
	}
	return out.Module, nil
}

// FetchCatalog returns the raw catalog document listing every module.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	resp, err := c.request(ctx).Get("/api/modules")
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if resp.IsError() {
		var env envelope
		_ = json.Unmarshal(resp.Body(), &env)
		return nil, fmt.Errorf("fetch catalog: %w", newAPIError(resp.StatusCode(), env, resp.String()))
	}
	return resp.Body(), nil
}
