package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikhil/teamglow/internal/credentials"
	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/models"
	teammodels "github.com/nikhil/teamglow/internal/models/teams"
	usermodels "github.com/nikhil/teamglow/internal/models/users"
)

const maxErrorBody = 4 << 10

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	User        usermodels.User `json:"user"`
}

// Client talks JSON over HTTP to the TeamGlow API. The bearer token is read
// from Creds on every request so a login or logout takes effect immediately.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Creds   credentials.Store
	Log     *logger.Logger
}

// NewClient creates a client for baseURL. A nil httpClient uses
// http.DefaultClient and a nil log discards output.
func NewClient(baseURL string, httpClient *http.Client, creds credentials.Store, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Creds:   creds,
		Log:     log,
	}
}

// Login exchanges credentials for an access token. It never sends a bearer
// header.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFeedback returns every feedback record visible to the current user.
func (c *Client) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	var out []models.Feedback
	if err := c.do(ctx, "fetch feedback", http.MethodGet, "/feedback", nil, true, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Feedback{}
	}
	return out, nil
}

func (c *Client) CreateFeedback(ctx context.Context, draft models.Draft) (models.Feedback, error) {
	var out models.Feedback
	err := c.do(ctx, "create feedback", http.MethodPost, "/feedback", draft, true, &out)
	return out, err
}

func (c *Client) UpdateFeedback(ctx context.Context, id string, changes models.Changes) (models.Feedback, error) {
	var out models.Feedback
	err := c.do(ctx, "update feedback", http.MethodPut, "/feedback/"+url.PathEscape(id), changes, true, &out)
	return out, err
}

func (c *Client) AcknowledgeFeedback(ctx context.Context, id string) (models.Feedback, error) {
	var out models.Feedback
	err := c.do(ctx, "acknowledge feedback", http.MethodPost, "/feedback/"+url.PathEscape(id)+"/acknowledge", nil, true, &out)
	return out, err
}

// TeamMembers returns the current manager's roster.
func (c *Client) TeamMembers(ctx context.Context) ([]teammodels.Member, error) {
	var out []teammodels.Member
	if err := c.do(ctx, "fetch team members", http.MethodGet, "/team/members", nil, true, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []teammodels.Member{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in interface{}, auth bool, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth && c.Creds != nil {
		token, ok, err := c.Creds.Get(ctx, credentials.TokenKey)
		if err != nil {
			return fmt.Errorf("%s: read token: %w", op, err)
		}
		if ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.Log.WithContext(context.WithValue(ctx, logger.RequestIDKey, requestID))
	start := time.Now()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Debug("Request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	log.Debug("Request completed", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
