package client

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
	"time"

	"github.com/dmitrijs2005/matchmate/internal/client/metrics"
	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/dmitrijs2005/matchmate/internal/logging"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 8 << 20

// HTTPClient talks JSON over HTTP to the matchmate backend.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client. Its transport is
// still wrapped with request metrics.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient builds a client for baseURL. timeout bounds each request;
// zero disables the client-side timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	instrumented := *c.http
	instrumented.Transport = promhttp.InstrumentRoundTripperCounter(metrics.HTTPRequestsTotal,
		promhttp.InstrumentRoundTripperDuration(metrics.HTTPRequestDuration, base))
	c.http = &instrumented
	return c, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", "", nil, nil)
	return err
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, creds)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(body)
}

func (c *HTTPClient) Register(ctx context.Context, creds models.Credentials) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/register", "", nil, creds)
	return err
}

func (c *HTTPClient) GetMyProfile(ctx context.Context, token string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/profiles/me", token, nil, nil)
	var re *RemoteError
	if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	return body, err
}

func (c *HTTPClient) CreateProfile(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/profiles", token, nil, payload)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, payload map[string]string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, "/profiles/me", token, nil, payload)
}

func (c *HTTPClient) Search(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/search", token, query, nil)
}

func (c *HTTPClient) ListFavorites(ctx context.Context, token string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/favorites", token, nil, nil)
}

func (c *HTTPClient) AddFavorite(ctx context.Context, token string, targetID string) error {
	_, err := c.do(ctx, http.MethodPost, "/favorites", token, nil, map[string]string{"targetId": targetID})
	return err
}

func (c *HTTPClient) RemoveFavorite(ctx context.Context, token string, targetID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(targetID), token, nil, nil)
	return err
}

// do issues one request and returns the body of a 2xx response. Transport
// failures map to ErrUnavailable and non-2xx responses to *RemoteError.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, query url.Values, payload any) (json.RawMessage, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{StatusCode: resp.StatusCode, Message: ExtractMessage(resp.StatusCode, body)}
		c.log.Debug(ctx, "request rejected", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		return nil, re
	}
	return body, nil
}

type authUser struct {
	ID        string `json:"id"`
	LegacyID  string `json:"_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ProfileID string `json:"profileId"`
}

type authPayload struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"accessToken"`
	SnakeToken  string          `json:"access_token"`
	User        *authUser       `json:"user"`
	Data        json.RawMessage `json:"data"`
}

func decodeAuthResult(body []byte) (*models.AuthResult, error) {
	var p authPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: login response: %v", common.ErrMalformedResponse, err)
	}
	if len(p.Data) > 0 && p.Data[0] == '{' {
		var inner authPayload
		if err := json.Unmarshal(p.Data, &inner); err == nil {
			p = inner
		}
	}

	token := firstNonEmpty(p.Token, p.AccessToken, p.SnakeToken)
	if token == "" {
		return nil, fmt.Errorf("%w: login response has no token", common.ErrMalformedResponse)
	}

	res := &models.AuthResult{Token: token}
	if p.User != nil {
		res.Identity = &models.Identity{
			ID:        firstNonEmpty(p.User.ID, p.User.LegacyID),
			Email:     p.User.Email,
			Role:      p.User.Role,
			ProfileID: p.User.ProfileID,
		}
	}
	return res, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
