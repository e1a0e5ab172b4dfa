// Package client is a small Go client for the network logger inspector API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

// Request mirrors one recorded exchange as served by the API.
type Request struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	Status          *int              `json:"status,omitempty"`
	Duration        *int64            `json:"duration,omitempty"`
	RequestBody     *string           `json:"requestBody"`
	ResponseBody    *string           `json:"responseBody"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	StartTime       int64             `json:"startTime"`
	EndTime         *int64            `json:"endTime,omitempty"`
	Timestamp       string            `json:"timestamp"`
	Error           *string           `json:"error,omitempty"`
	State           string            `json:"state"`
	DurationText    string            `json:"durationText"`
	StatusColor     string            `json:"statusColor"`
	ErrorCode       string            `json:"errorCode,omitempty"`
}

type DebugInfo struct {
	IsLogging            bool     `json:"isLogging"`
	HookType             string   `json:"hookType"`
	HasInterceptor       bool     `json:"hasInterceptor"`
	InterceptorEnabled   bool     `json:"interceptorEnabled"`
	HasOriginalTransport bool     `json:"hasOriginalTransport"`
	RequestCount         int      `json:"requestCount"`
	MaxRequests          int      `json:"maxRequests"`
	IgnoredHosts         []string `json:"ignoredHosts"`
	IgnoredURLs          []string `json:"ignoredUrls"`
	IgnoredPatterns      []string `json:"ignoredPatterns"`
	StaleAfterMs         int64    `json:"staleAfterMs"`
}

// StartOptions are sent to /api/logging/start; nil fields keep the server value.
type StartOptions struct {
	Force           bool     `json:"force,omitempty"`
	MaxRequests     *int     `json:"maxRequests,omitempty"`
	IgnoredHosts    []string `json:"ignoredHosts,omitempty"`
	IgnoredURLs     []string `json:"ignoredUrls,omitempty"`
	IgnoredPatterns []string `json:"ignoredPatterns,omitempty"`
	StaleAfterMs    *int64   `json:"staleAfterMs,omitempty"`
}

type ListOptions struct {
	Q      string
	Method string
	State  string
	Limit  int
	Offset int
}

// APIError is the decoded error envelope of a non-2xx response.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("network logger api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (c *Client) ListRequests(ctx context.Context, o ListOptions) ([]Request, int, error) {
	q := url.Values{}
	if o.Q != "" {
		q.Set("q", o.Q)
	}
	if o.Method != "" {
		q.Set("method", o.Method)
	}
	if o.State != "" {
		q.Set("state", o.State)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	path := "/api/requests"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Items []Request `json:"items"`
		Total int       `json:"total"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (c *Client) GetRequest(ctx context.Context, id string) (Request, error) {
	var out Request
	err := c.doJSON(ctx, http.MethodGet, "/api/requests/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Curl(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/requests/"+url.PathEscape(id)+"/curl", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func (c *Client) ClearRequests(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/requests", nil, nil)
}

func (c *Client) Debug(ctx context.Context) (DebugInfo, error) {
	var out DebugInfo
	err := c.doJSON(ctx, http.MethodGet, "/api/debug", nil, &out)
	return out, err
}

func (c *Client) Start(ctx context.Context, o StartOptions) (DebugInfo, error) {
	var out DebugInfo
	err := c.doJSON(ctx, http.MethodPost, "/api/logging/start", o, &out)
	return out, err
}

func (c *Client) Stop(ctx context.Context) (DebugInfo, error) {
	var out DebugInfo
	err := c.doJSON(ctx, http.MethodPost, "/api/logging/stop", nil, &out)
	return out, err
}

func (c *Client) SelfTest(ctx context.Context) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/selftest", nil, &out)
	return out.OK, err
}

// ExportHAR copies the HAR document into w.
func (c *Client) ExportHAR(ctx context.Context, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/requests.har", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var env struct {
			Error APIError `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&env)
		env.Error.Status = resp.StatusCode
		return nil, &env.Error
	}
	return resp, nil
}
