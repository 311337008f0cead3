package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/iho/ledgerimport/internal/adapter/http/dto"
	"github.com/iho/ledgerimport/internal/adapter/http/middleware"
)

// apiClient talks to the ledger import HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   apiToken,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx API response.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("api error (status %d): %s", e.Status, e.Body.Error)
	if e.Body.Message != "" {
		msg += ": " + e.Body.Message
	}
	for header, suggestion := range e.Body.Suggestions {
		msg += fmt.Sprintf("\n  column %q: did you mean %q?", header, suggestion)
	}
	return msg
}

type uploadRequest struct {
	ProjectID      string
	FileName       string
	Content        []byte
	NumberFormat   string
	IdempotencyKey string
}

func (c *apiClient) upload(ctx context.Context, req uploadRequest) (*dto.ImportReportResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(dto.FormFieldFile, filepath.Base(req.FileName))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, err
	}
	if req.NumberFormat != "" {
		if err := w.WriteField(dto.FormFieldNumberFormat, req.NumberFormat); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("projects", req.ProjectID, "imports"), &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(middleware.IdempotencyKeyHeader, req.IdempotencyKey)
	}

	var report dto.ImportReportResponse
	if err := c.do(httpReq, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// projectProgress returns false when nothing has been recorded yet.
func (c *apiClient) projectProgress(ctx context.Context, projectID string) (*dto.ProgressResponse, bool, error) {
	var p dto.ProgressResponse
	err := c.get(ctx, c.url("projects", projectID, "imports", "progress"), nil, &p)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

func (c *apiClient) listBatches(ctx context.Context, projectID string, limit, offset int) ([]dto.ImportBatchResponse, error) {
	var out []dto.ImportBatchResponse
	err := c.get(ctx, c.url("projects", projectID, "imports"), pageQuery(limit, offset), &out)
	return out, err
}

func (c *apiClient) getBatch(ctx context.Context, id string) (*dto.ImportBatchResponse, error) {
	var out dto.ImportBatchResponse
	if err := c.get(ctx, c.url("imports", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) listDivergences(ctx context.Context, id string, limit, offset int) ([]dto.DivergentRowResponse, error) {
	var out []dto.DivergentRowResponse
	err := c.get(ctx, c.url("imports", id, "divergences"), pageQuery(limit, offset), &out)
	return out, err
}

func (c *apiClient) url(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/api/v1/" + strings.Join(escaped, "/")
}

func (c *apiClient) get(ctx context.Context, rawURL string, query url.Values, out any) error {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(body, &apiErr.Body) != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}
	return q
}
