// Package rtdb talks to a Firebase Realtime Database style REST endpoint:
// every node is addressed as {base}/{path}.json and read or written with
// plain HTTP verbs.
package rtdb

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

	"github.com/PabloGalante/englishmaster/internal/adapters/storage/docpath"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

type Store struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewStore creates a REST store client.
// A zero timeout leaves requests unbounded.
func NewStore(baseURL, authToken string, timeout time.Duration) (*Store, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required for rtdb store")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse baseURL: %w", err)
	}

	return &Store{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// pushResponse is the body returned by POST.
type pushResponse struct {
	Name string `json:"name"`
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	return json.RawMessage(trimmed), nil
}

func (s *Store) Put(ctx context.Context, path string, value any) error {
	if _, err := s.do(ctx, http.MethodPut, path, value); err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}
	return nil
}

func (s *Store) Post(ctx context.Context, path string, value any) (string, error) {
	body, err := s.do(ctx, http.MethodPost, path, value)
	if err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}

	var resp pushResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if resp.Name == "" {
		return "", &domain.StoreError{Op: "post", Path: path, Err: fmt.Errorf("response has no key")}
	}
	return resp.Name, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.do(ctx, http.MethodDelete, path, nil); err != nil {
		return &domain.StoreError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

func (s *Store) nodeURL(path string) (string, error) {
	parts, err := docpath.Split(path)
	if err != nil {
		return "", err
	}

	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}

	u := s.baseURL + "/" + strings.Join(escaped, "/") + ".json"
	if s.authToken != "" {
		u += "?auth=" + url.QueryEscape(s.authToken)
	}
	return u, nil
}

func (s *Store) do(ctx context.Context, method, path string, value any) ([]byte, error) {
	u, err := s.nodeURL(path)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if value != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
