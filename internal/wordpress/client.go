package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"content-cache-api/internal/cache"

	platformerrors "github.com/jmgilman/go/errors"
)

// DefaultTimeout bounds a single upstream request when Config.Timeout is unset.
const DefaultTimeout = 5 * time.Second

// ErrUnavailable matches every failure of the upstream content API:
// missing configuration, transport errors, non-2xx responses and GraphQL errors.
var ErrUnavailable = stderrors.New("upstream content API unavailable")

// Config configures a Client.
type Config struct {
	// Endpoint is the GraphQL URL. Empty or placeholder values disable the client.
	Endpoint string
	// AuthToken is sent as a bearer token when set.
	AuthToken  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues GraphQL queries against a WordPress endpoint.
type Client struct {
	endpoint   string
	authToken  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	configured bool
}

// NewClient builds a Client. An unusable endpoint yields a client whose every call fails with ErrUnavailable.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	return &Client{
		endpoint:   endpoint,
		authToken:  strings.TrimSpace(cfg.AuthToken),
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
		configured: !IsPlaceholderEndpoint(endpoint),
	}
}

// Configured reports whether the client has a usable endpoint.
func (c *Client) Configured() bool { return c.configured }

// IsPlaceholderEndpoint reports whether endpoint is empty, malformed or an obvious template value.
func IsPlaceholderEndpoint(endpoint string) bool {
	if endpoint == "" {
		return true
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "your-") || strings.Contains(host, "your_") {
		return true
	}
	return host == "example.com" || strings.HasSuffix(host, ".example.com")
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query posts document and variables and decodes the response data into out.
// The policy's revalidation interval is sent as a Cache-Control hint for
// upstream and CDN caches. Query never retries.
func (c *Client) Query(ctx context.Context, document string, variables map[string]any, policy cache.Policy, out any) error {
	if !c.configured {
		return unavailable(platformerrors.CodeInvalidConfig, "content API endpoint is not configured", nil, nil)
	}
	if variables == nil {
		variables = map[string]any{}
	}

	body, err := json.Marshal(graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to encode GraphQL request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return unavailable(platformerrors.CodeInvalidConfig, "failed to build content API request", err, nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if secs := policy.RevalidateSeconds(); secs > 0 {
		req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(secs))
		req.Header.Set("X-Revalidate", strconv.Itoa(secs))
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := platformerrors.CodeNetwork
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = platformerrors.CodeTimeout
		}
		return unavailable(code, "content API request failed", err, map[string]interface{}{"resource": policy.Name})
	}
	defer resp.Body.Close()

	c.logger.Debug("content API responded",
		slog.String("resource", policy.Name),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return unavailable(platformerrors.CodeUnavailable, fmt.Sprintf("content API returned HTTP %d", resp.StatusCode), nil,
			map[string]interface{}{"status": resp.StatusCode, "resource": policy.Name})
	}

	var gql graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		code := platformerrors.CodeUnavailable
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = platformerrors.CodeTimeout
		}
		return unavailable(code, "content API returned an unreadable body", err, map[string]interface{}{"resource": policy.Name})
	}
	if len(gql.Errors) > 0 {
		return unavailable(platformerrors.CodeUnavailable, "content API returned GraphQL errors: "+gql.Errors[0].Message, nil,
			map[string]interface{}{"errors": len(gql.Errors), "resource": policy.Name})
	}
	if len(gql.Data) == 0 || string(gql.Data) == "null" {
		return unavailable(platformerrors.CodeUnavailable, "content API returned no data", nil, map[string]interface{}{"resource": policy.Name})
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gql.Data, out); err != nil {
		return unavailable(platformerrors.CodeUnavailable, "content API returned an unexpected shape", err, map[string]interface{}{"resource": policy.Name})
	}
	return nil
}

// unavailable builds a platform error whose chain contains ErrUnavailable.
func unavailable(code platformerrors.ErrorCode, message string, cause error, ctx map[string]interface{}) error {
	inner := ErrUnavailable
	if cause != nil {
		inner = fmt.Errorf("%w: %w", ErrUnavailable, cause)
	}
	return platformerrors.WrapWithContext(inner, code, message, ctx)
}
