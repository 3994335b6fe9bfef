// Package directory implements the DirectoryClient port against the JSON/REST
// surface of the Admin SDK Directory API.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// DefaultBaseURL is the Directory API root for service "admin", version "directory_v1".
const DefaultBaseURL = "https://admin.googleapis.com/admin/directory/v1"

// Compile-time interface satisfaction check.
var _ driven.DirectoryClient = (*Client)(nil)

// Client implements driven.DirectoryClient with plain JSON over net/http.
// Authentication lives in the http.Client's transport.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	// cache is the store behind httpClient's httpcache.Transport, or nil.
	// A successful write evicts the cached read of the same resource.
	cache httpcache.Cache
}

// fullProjection is the query of every user read.
var fullProjection = url.Values{"projection": {"full"}}

// NewClient creates a Client that sends requests through httpClient to the
// API rooted at baseURL. cache is the httpcache.Cache used by httpClient's
// transport, if any.
func NewClient(httpClient *http.Client, baseURL string, cache httpcache.Cache) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("http client is nil")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: expected absolute http(s) URL", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	return &Client{
		http:    httpClient,
		baseURL: u,
		cache:   cache,
	}, nil
}

// FetchUser retrieves a user with projection=full so custom schemas and
// POSIX accounts are included.
func (c *Client) FetchUser(ctx context.Context, userKey string) (model.UserRecord, error) {
	var user model.UserRecord
	if err := c.do(ctx, http.MethodGet, userPath(userKey), fullProjection, nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser replaces the user resource with body.
func (c *Client) UpdateUser(ctx context.Context, userKey string, body model.UserRecord) (model.UserRecord, error) {
	var user model.UserRecord
	if err := c.do(ctx, http.MethodPut, userPath(userKey), nil, body, &user); err != nil {
		return nil, err
	}
	c.evict(userPath(userKey), fullProjection)
	return user, nil
}

// FetchGroup retrieves a group.
func (c *Client) FetchGroup(ctx context.Context, groupKey string) (model.GroupRecord, error) {
	var group model.GroupRecord
	if err := c.do(ctx, http.MethodGet, groupPath(groupKey), nil, nil, &group); err != nil {
		return nil, err
	}
	return group, nil
}

// PatchGroup sends body as a partial update of the group.
func (c *Client) PatchGroup(ctx context.Context, groupKey string, body map[string]any) (model.GroupRecord, error) {
	var group model.GroupRecord
	if err := c.do(ctx, http.MethodPatch, groupPath(groupKey), nil, body, &group); err != nil {
		return nil, err
	}
	c.evict(groupPath(groupKey), nil)
	return group, nil
}

func userPath(key string) string  { return "users/" + url.PathEscape(key) }
func groupPath(key string) string { return "groups/" + url.PathEscape(key) }

// do executes one API call. Non-2xx responses become *model.APIError; a
// successful response body is decoded into out with numbers kept as json.Number.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.endpoint(path, query)

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return fmt.Errorf("creating %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	slog.Debug("directory api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"from_cache", resp.Header.Get(httpcache.XFromCache) == "1",
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// evict drops the cached GET of path so the next read goes to the server.
// httpcache keys GET responses by the full request URL.
func (c *Client) evict(path string, query url.Values) {
	if c.cache == nil {
		return
	}
	c.cache.Delete(c.endpoint(path, query).String())
}

// errorEnvelope is the error body shape of Google JSON APIs.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Message string `json:"message"`
			Domain  string `json:"domain"`
			Reason  string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// newAPIError maps an error response to *model.APIError. Bodies that are not
// the JSON error envelope still yield the status and raw content.
func newAPIError(status int, body []byte) *model.APIError {
	apiErr := &model.APIError{
		Status:  status,
		Reason:  http.StatusText(status),
		Content: string(body),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Error.Message
		switch {
		case len(env.Error.Errors) > 0 && env.Error.Errors[0].Reason != "":
			apiErr.Reason = env.Error.Errors[0].Reason
		case env.Error.Status != "":
			apiErr.Reason = env.Error.Status
		}
	}

	if status == http.StatusNotFound {
		apiErr.Err = driven.ErrNotFound
	}
	return apiErr
}
