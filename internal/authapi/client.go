// Package authapi is the client for the authentication service. It owns
// credential exchange, session resolution and the faculty listing; it does
// not hold session state itself (see internal/session).
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"lms-client/internal/domain"
	"lms-client/internal/httpx"
	"lms-client/internal/normalize"
)

const contentTypeJSON = "application/json"

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Retry   httpx.RetryConfig

	logger *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		Retry:   httpx.DefaultRetryConfig(),
		logger:  logger.With(slog.String("component", "auth_client")),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates an account. It never authenticates: a successful signup
// leaves the caller exactly as logged-out as before.
func (c *Client) Register(ctx context.Context, name, email, password string, role domain.Role) error {
	body, err := json.Marshal(registerRequest{Name: name, Email: email, Password: password, Role: string(role)})
	if err != nil {
		return err
	}

	err = httpx.DoJSON(ctx, c.HTTP, c.post("/register", body), nil, c.Retry)
	if err != nil {
		if herr, ok := httpx.AsHTTPError(err); ok {
			return &domain.ValidationError{Message: herr.Message("Registration failed")}
		}
		return &domain.NetworkError{Err: err}
	}
	return nil
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The token alone is not a
// session; callers resolve the profile with ResolveSession.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	var out loginResponse
	err = httpx.DoJSON(ctx, c.HTTP, c.post("/login", body), &out, c.Retry)
	if err != nil {
		if herr, ok := httpx.AsHTTPError(err); ok {
			return "", &domain.AuthError{Message: herr.Message("Invalid email or password")}
		}
		return "", &domain.NetworkError{Err: err}
	}
	if out.Token == "" {
		return "", &domain.AuthError{Message: "Token missing in login response"}
	}
	return out.Token, nil
}

// ResolveSession validates a bearer token and returns the profile it
// belongs to, normalized.
func (c *Client) ResolveSession(ctx context.Context, token string) (domain.User, error) {
	var raw normalize.RawUser
	err := httpx.DoJSON(ctx, c.HTTP, c.get("/me", token), &raw, c.Retry)
	if err != nil {
		if _, ok := httpx.AsHTTPError(err); ok {
			return domain.User{}, &domain.AuthError{Message: "Could not load user profile", Err: err}
		}
		return domain.User{}, &domain.NetworkError{Err: err}
	}

	u := normalize.User(raw)
	if u.ID == "" {
		return domain.User{}, &domain.AuthError{Message: "Malformed session response"}
	}
	c.logger.Debug("session resolved", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	return u, nil
}

// ListFaculty returns all faculty accounts, normalized.
func (c *Client) ListFaculty(ctx context.Context) ([]domain.User, error) {
	var raw []normalize.RawUser
	err := httpx.DoJSON(ctx, c.HTTP, c.get("/faculty", ""), &raw, c.Retry)
	if err != nil {
		if _, ok := httpx.AsHTTPError(err); ok {
			return nil, &domain.AuthError{Message: "Could not list faculty", Err: err}
		}
		return nil, &domain.NetworkError{Err: err}
	}

	users := make([]domain.User, 0, len(raw))
	for _, r := range raw {
		users = append(users, normalize.User(r))
	}
	return users, nil
}

func (c *Client) post(path string, body []byte) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", contentTypeJSON)
		r.Header.Set("Accept", contentTypeJSON)
		return r, nil
	}
}

func (c *Client) get(path, token string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		u, err := url.JoinPath(c.BaseURL, path)
		if err != nil {
			return nil, err
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", contentTypeJSON)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return r, nil
	}
}
