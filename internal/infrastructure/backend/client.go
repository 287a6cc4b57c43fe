package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"medhead-reservation/config"
	"medhead-reservation/internal/domain/entity"
	"medhead-reservation/internal/domain/gateway"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	CSRFPath    = "/test/csrf"
	ProcessPath = "/api/patients/process"
	ReservePath = "/api/reserve"

	CSRFHeader = "X-XSRF-TOKEN"

	maxBodySize = 1 << 20
)

var (
	ErrEmptyCSRFToken  = errors.New("backend returned an empty csrf token")
	ErrInvalidResponse = errors.New("backend returned a non-JSON response")
)

// TokenSource provides the bearer token attached to authenticated requests
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a pre-issued bearer token
type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

type Client struct {
	baseURL         string
	httpClient      *http.Client
	tokens          TokenSource
	simulateSuccess bool
	log             *logrus.Logger

	csrf singleflight.Group
}

var _ gateway.ReservationGateway = (*Client)(nil)

// NewClient builds the MedHead backend client. tokens may be nil, in which
// case requests go out without an Authorization header.
func NewClient(cfg config.BackendConfig, tokens TokenSource, log *logrus.Logger) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", cfg.URL)
	}

	// the CSRF cookie set by the backend must come back with the POST
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local self-signed backend
	}

	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: transport,
		},
		tokens:          tokens,
		simulateSuccess: cfg.SimulateSuccess,
		log:             log,
	}, nil
}

// Process submits a patient to the allocation endpoint. The answer must be JSON.
func (c *Client) Process(ctx context.Context, req *entity.ReservationRequest) (*entity.ReservationResponse, error) {
	body, err := c.postWithTokens(ctx, ProcessPath, nil, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, ErrInvalidResponse
	}
	return entity.ParseReservationResponse(body), nil
}

// Reserve calls the bed reservation endpoint, which answers plain text
func (c *Client) Reserve(ctx context.Context, req *entity.ReservationRequest) (*entity.ReservationResponse, error) {
	query := url.Values{"simulateSuccess": {strconv.FormatBool(c.simulateSuccess)}}
	body, err := c.postWithTokens(ctx, ReservePath, query, req)
	if err != nil {
		return nil, err
	}
	return entity.ParseReservationResponse(body), nil
}

// CSRFToken fetches a fresh CSRF token. Concurrent callers share one request.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	ch := c.csrf.DoChan("csrf", func() (interface{}, error) {
		// detached so one caller giving up does not fail the others
		return c.fetchCSRFToken(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+CSRFPath, nil)
	if err != nil {
		return "", err
	}

	body, err := c.do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", ErrEmptyCSRFToken
	}
	return token, nil
}

func (c *Client) postWithTokens(ctx context.Context, path string, query url.Values, payload interface{}) ([]byte, error) {
	csrfToken, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(CSRFHeader, csrfToken)

	if c.tokens != nil {
		bearer, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("bearer token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	body, err := c.do(httpReq)
	if err != nil {
		c.log.Warnf("POST %s failed: %+v", path, err)
		return nil, err
	}

	c.log.Debugf("POST %s succeeded", path)
	return body, nil
}

func (c *Client) do(httpReq *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &gateway.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}
