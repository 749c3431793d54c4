package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/qadesk/internal/models"
)

// Client talks to a running qadesk server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

// Retrieve fetches the k nearest chunks for q (k <= 0 uses the server default).
func (c *Client) Retrieve(ctx context.Context, q string, k int) (*models.RetrieveResponse, error) {
	params := url.Values{"q": {q}}
	if k > 0 {
		params.Set("k", strconv.Itoa(k))
	}
	var out models.RetrieveResponse
	if err := c.get(ctx, "/retrieve", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a keyword search.
func (c *Client) Search(ctx context.Context, q string, limit int, fuzzy bool) ([]models.SearchHit, error) {
	params := url.Values{"q": {q}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if fuzzy {
		params.Set("fuzzy", "true")
	}
	var out struct {
		Hits []models.SearchHit `json:"hits"`
	}
	if err := c.get(ctx, "/search", params, &out); err != nil {
		return nil, err
	}
	return out.Hits, nil
}

// Query posts req to /query and decodes the body according to the requested agent.
func (c *Client) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res := &models.QueryResponse{}
	var target any
	switch {
	case req.UseAgent && strings.EqualFold(strings.TrimSpace(req.AgentType), models.AgentAnalyzer):
		res.Analysis = &models.AnalysisReport{}
		target = res.Analysis
	case req.UseAgent && strings.EqualFold(strings.TrimSpace(req.AgentType), models.AgentOnboarding):
		res.Onboarding = &models.OnboardingResult{}
		target = res.Onboarding
	default:
		var answer struct {
			Answer string `json:"answer"`
		}
		if err := c.do(httpReq, &answer); err != nil {
			return nil, err
		}
		res.Answer = answer.Answer
		return res, nil
	}
	if err := c.do(httpReq, target); err != nil {
		return nil, err
	}
	return res, nil
}

// Status fetches server status.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var st models.Status
	if err := c.get(ctx, "/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Documents lists catalog entries.
func (c *Client) Documents(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	params := url.Values{"offset": {strconv.Itoa(offset)}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Documents []*models.Document `json:"documents"`
	}
	if err := c.get(ctx, "/documents", params, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Upload sends the files at paths in one multipart request.
func (c *Client) Upload(ctx context.Context, paths ...string) (*models.UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		if err := addFile(mw, p); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out models.UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func addFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
