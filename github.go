package gitpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// errBodyLimit bounds how much of an upstream error body is kept for the
// error message.
const errBodyLimit = 512

// RepoConfig identifies the single branch of the remote repository used as
// the content store.
type RepoConfig struct {
	APIBaseURL string // default "https://api.github.com"
	Owner      string
	Repo       string
	Branch     string // default "main"
}

func (c *RepoConfig) setDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.github.com"
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
}

// Client performs authenticated CRUD against the contents API of one branch
// of one remote repository. Clients are cheap to construct; the HTTP layer
// builds one per authenticated request around a shared http.Client.
type Client struct {
	cfg        RepoConfig
	token      string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client, usually shared across
// requests so connections are reused.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a contents-API client for the given repository and
// credential.
func NewClient(cfg RepoConfig, token string, opts ...ClientOption) *Client {
	cfg.setDefaults()
	c := &Client{
		cfg:   cfg,
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// File is one file fetched from the remote repository. SHA is the revision
// marker required on every update and delete.
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
	SHA  string `json:"sha"`
}

type contentsResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.cfg.APIBaseURL, c.cfg.Owner, c.cfg.Repo, escapePath(path))
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do runs the request and normalizes failures into the error taxonomy:
// 401/403 -> ErrAuth, 404 -> ErrNotFound, 409/422 -> ErrConflict, anything
// else non-2xx -> *UpstreamError. On success it returns the response body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures, timeouts and context cancellation all surface
		// here rather than hanging silently.
		return nil, &UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	msg := upstreamMessage(body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuth, msg)
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// The contents API reports a stale or missing sha for an existing
		// file with 409 or 422. Both signal a lost-update race.
		return nil, fmt.Errorf("%w: %s", ErrConflict, msg)
	default:
		return nil, &UpstreamError{Status: resp.StatusCode, Body: msg}
	}
}

// upstreamMessage extracts the "message" field from an error body, falling
// back to a bounded excerpt of the raw body.
func upstreamMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return truncate(e.Message, errBodyLimit)
	}
	return truncate(strings.TrimSpace(string(body)), errBodyLimit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// GetFile fetches a single file and its revision marker from the configured
// branch. The content arrives base64-encoded and is decoded here.
func (c *Client) GetFile(ctx context.Context, path string) (File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.contentsURL(path)+"?ref="+url.QueryEscape(c.cfg.Branch), nil)
	if err != nil {
		return File{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return File{}, fmt.Errorf("get %s: %w", path, err)
	}

	var data contentsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return File{}, &UpstreamError{Body: "malformed contents response: " + err.Error()}
	}
	// The API inserts newlines into long base64 payloads.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(data.Content, "\n", ""))
	if err != nil {
		return File{}, &UpstreamError{Body: "malformed base64 content: " + err.Error()}
	}
	return File{Path: data.Path, Content: raw, SHA: data.SHA}, nil
}

// ListDir lists the entries of a directory on the configured branch. A
// missing directory is ErrNotFound, not an empty listing.
func (c *Client) ListDir(ctx context.Context, path string) ([]DirEntry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.contentsURL(path)+"?ref="+url.QueryEscape(c.cfg.Branch), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	var entries []DirEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &UpstreamError{Body: "malformed listing response: " + err.Error()}
	}
	return entries, nil
}

// PutFile creates or updates a file, producing exactly one commit on the
// configured branch. An empty sha requests an unconditional create; a
// non-empty sha makes the write conditional on that revision still being
// current, failing with ErrConflict when it is stale.
func (c *Client) PutFile(ctx context.Context, path string, content []byte, message, sha string) error {
	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.cfg.Branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal put payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.contentsURL(path), body)
	if err != nil {
		return err
	}
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// DeleteFile removes a file, producing exactly one commit. The current sha is
// required; a stale sha fails with ErrConflict.
func (c *Client) DeleteFile(ctx context.Context, path, message, sha string) error {
	body, err := json.Marshal(map[string]string{
		"message": message,
		"sha":     sha,
		"branch":  c.cfg.Branch,
	})
	if err != nil {
		return fmt.Errorf("marshal delete payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, c.contentsURL(path), body)
	if err != nil {
		return err
	}
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// CheckToken probes the credential against the user endpoint and reports
// whether it can also reach the configured repository.
func (c *Client) CheckToken(ctx context.Context) (user string, repoAccess bool, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.APIBaseURL+"/user", nil)
	if err != nil {
		return "", false, err
	}
	body, err := c.do(req)
	if err != nil {
		return "", false, fmt.Errorf("check token: %w", err)
	}
	var u struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return "", false, &UpstreamError{Body: "malformed user response: " + err.Error()}
	}

	repoURL := fmt.Sprintf("%s/repos/%s/%s", c.cfg.APIBaseURL, c.cfg.Owner, c.cfg.Repo)
	req, err = c.newRequest(ctx, http.MethodGet, repoURL, nil)
	if err != nil {
		return u.Login, false, err
	}
	if _, err := c.do(req); err != nil {
		return u.Login, false, nil
	}
	return u.Login, true, nil
}
