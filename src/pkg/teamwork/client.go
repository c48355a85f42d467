/*
Package teamwork is a small REST client for the Teamwork Projects v1 API.

Only the endpoints needed for invoicing are covered:
  - GET  /projects.json
  - GET  /projects/{id}/people.json
  - GET  /projects/{id}/expenses.json
  - GET  /projects/{id}/rates.json
  - GET  /projects/{id}/time_entries.json (paginated)
  - POST /projects/{id}/invoices.json
  - PUT  /invoices/{id}/lineitems.json

Requests use HTTP basic auth with the API key as the user and an empty password.
*/
package teamwork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	"golang.org/x/time/rate"

	"teamwork-invoicer/src/pkg/util"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultPageSize = 500
	MaxPageSize     = 500
)

// Logger receives request traces and failure details.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type Options struct {
	BaseURL string
	APIKey  string
	Log     Logger

	Timeout           time.Duration
	RequestsPerSecond float64       // 0 disables client side throttling
	PageDelay         time.Duration // wait before every page after the first
	PageSize          int
	HTTPClient        *http.Client
}

type Client struct {
	baseURL   string
	apiKey    string
	log       Logger
	http      *http.Client
	limiter   *rate.Limiter
	pageDelay time.Duration
	pageSize  int
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		log:       opts.Log,
		http:      opts.HTTPClient,
		pageDelay: opts.PageDelay,
		pageSize:  util.ClampOrDefault(opts.PageSize, DefaultPageSize, 1, MaxPageSize),
	}
	if c.log == nil {
		c.log = discardLogger{}
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL is the site url requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// ProjectURL is the browser url of a project, used in messages for humans.
func (c *Client) ProjectURL(projectID ID) string {
	return fmt.Sprintf("%s/#/projects/%s", c.baseURL, projectID)
}

/*
response is a fully read HTTP response.
*/
type response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	URL        string
}

func (r response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

/*
do sends one request and reads the whole body.

A non-2xx status is returned as an error together with the response, so callers
that care about the status code can still inspect it. The status line is only
traced at debug level; reporting it is left to the caller.
*/
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (resp response, e *xerr.Error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	resp.URL = fullURL

	var body *bytes.Reader
	if payload != nil {
		encoded, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return resp, xerr.NewError(marshalErr, "Failed to marshal request payload", payload)
		}
		c.log.Debug("%s %s %s", method, fullURL, encoded)
		body = bytes.NewReader(encoded)
	} else {
		c.log.Debug("%s %s", method, fullURL)
		body = bytes.NewReader(nil)
	}

	if c.limiter != nil {
		waitErr := c.limiter.Wait(ctx)
		if waitErr != nil {
			return resp, xerr.NewError(waitErr, "Rate limiter wait interrupted", fullURL)
		}
	}

	req, newReqErr := http.NewRequestWithContext(ctx, method, fullURL, body)
	if newReqErr != nil {
		return resp, xerr.NewError(newReqErr, "Failed to create HTTP request", fullURL)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")

	httpResp, httpErr := c.http.Do(req)
	if httpErr != nil {
		c.log.Error("%s %s failed: %s", method, fullURL, httpErr)
		return resp, xerr.NewError(httpErr, "HTTP error", map[string]any{"method": method, "url": fullURL})
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode
	resp.Status = httpResp.Status
	resp.Header = httpResp.Header

	respBody, e := readBody(httpResp, fullURL)
	if e != nil {
		return resp, e
	}
	resp.Body = respBody
	tl.Log(tl.Debug1, palette.CyanDim, "%s %s -> %s", method, fullURL, httpResp.Status)

	if !resp.ok() {
		c.log.Debug("%s %s returned status '%s': %s", method, fullURL, httpResp.Status, truncate(respBody, 512))
		return resp, xerr.NewError(fmt.Errorf("status is '%s'", httpResp.Status), "API error", map[string]any{"method": method, "url": fullURL, "body": string(respBody)})
	}
	return resp, nil
}

/*
decodeKey unmarshals body[key] into out.

The key must be present; when requireOK is set the STATUS field must be "OK".
*/
func (c *Client) decodeKey(resp response, key string, requireOK bool, out any) (e *xerr.Error) {
	var envelope map[string]json.RawMessage
	decodeErr := json.Unmarshal(resp.Body, &envelope)
	if decodeErr != nil {
		c.log.Error("Unable to decode response of %s: %s", resp.URL, decodeErr)
		return xerr.NewError(decodeErr, "Failed to decode response body", resp.URL)
	}
	if requireOK {
		e = checkStatus(envelope, resp.URL)
		if e != nil {
			c.log.Error("Response of %s has no STATUS OK", resp.URL)
			return e
		}
	}
	if key == "" {
		return nil
	}
	raw, found := envelope[key]
	if !found {
		c.log.Error("Response of %s has no '%s' key", resp.URL, key)
		return xerr.NewError(fmt.Errorf("missing '%s' key", key), "Unexpected API response", resp.URL)
	}
	if out == nil {
		return nil
	}
	decodeErr = json.Unmarshal(raw, out)
	if decodeErr != nil {
		c.log.Error("Unable to decode '%s' of %s: %s", key, resp.URL, decodeErr)
		return xerr.NewError(decodeErr, fmt.Sprintf("Failed to decode '%s'", key), resp.URL)
	}
	return nil
}

func checkStatus(envelope map[string]json.RawMessage, urlStr string) (e *xerr.Error) {
	var status string
	raw, found := envelope["STATUS"]
	if found {
		_ = json.Unmarshal(raw, &status)
	}
	if status != StatusOK {
		return xerr.NewError(fmt.Errorf("STATUS is '%s'", status), "API reported failure", urlStr)
	}
	return nil
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Error(string, ...any) {}
