package storage

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
	"time"

	"github.com/bunchhieng/coursetree/internal/model"
)

// maxDocumentBytes caps how much of a response body is read.
const maxDocumentBytes = 4 << 20

// HTTPStorage implements Storage against a remote `coursetree serve` instance.
type HTTPStorage struct {
	baseURL string
	client  *http.Client
}

// CreateResponse is the body returned when a tree is created.
type CreateResponse struct {
	ID string `json:"id"`
}

// NewHTTPStorage returns a client for the store served at baseURL.
func NewHTTPStorage(baseURL string, client *http.Client) (*HTTPStorage, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStorage{baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

func (s *HTTPStorage) treesURL(id string) string {
	if id == "" {
		return s.baseURL + "/api/trees"
	}
	return s.baseURL + "/api/trees/" + url.PathEscape(id)
}

// Create posts content and returns the ID the server assigned.
func (s *HTTPStorage) Create(ctx context.Context, content []byte) (string, error) {
	resp, err := s.do(ctx, http.MethodPost, s.treesURL(""), content)
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create tree: %w", statusError(resp))
	}
	var out CreateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create tree: server returned no id")
	}
	return out.ID, nil
}

// Read fetches a tree's raw content.
func (s *HTTPStorage) Read(ctx context.Context, id string) ([]byte, error) {
	if !model.ValidateTreeID(id) {
		return nil, model.ErrInvalidID
	}
	resp, err := s.do(ctx, http.MethodGet, s.treesURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return nil, fmt.Errorf("read tree body: %w", err)
		}
		return body, nil
	case http.StatusNotFound:
		return nil, model.ErrNotFound
	default:
		return nil, fmt.Errorf("get tree: %w", statusError(resp))
	}
}

// Update replaces a tree's content.
func (s *HTTPStorage) Update(ctx context.Context, id string, content []byte) error {
	if !model.ValidateTreeID(id) {
		return model.ErrInvalidID
	}
	resp, err := s.do(ctx, http.MethodPut, s.treesURL(id), content)
	if err != nil {
		return fmt.Errorf("update tree: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return model.ErrNotFound
	default:
		return fmt.Errorf("update tree: %w", statusError(resp))
	}
}

// List fetches summaries of recently updated trees.
func (s *HTTPStorage) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	u := s.treesURL("")
	if opts.Limit > 0 {
		u += "?limit=" + strconv.Itoa(opts.Limit)
	}
	resp, err := s.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list trees: %w", statusError(resp))
	}
	var out []Summary
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tree list: %w", err)
	}
	return out, nil
}

// Close is a no-op; the HTTP client holds no exclusive resources.
func (s *HTTPStorage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *HTTPStorage) do(ctx context.Context, method, u string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return s.client.Do(req)
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
