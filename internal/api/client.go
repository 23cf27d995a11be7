// Package api is the client for the document classification service.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/mfenderov/smart-organizer/internal/metrics"
	"github.com/mfenderov/smart-organizer/internal/resilience"
	"github.com/mfenderov/smart-organizer/pkg/models"
)

// Config holds API client configuration.
type Config struct {
	BaseURL        string        // e.g. "http://localhost:8000"
	Timeout        time.Duration // per call; defaults to 60s
	SummaryTimeout time.Duration // for /summarize; defaults to Timeout
	Resilience     resilience.Policy
	Metrics        *metrics.ClientMetrics // optional
	HTTPClient     *http.Client           // optional, for tests
}

// Client is a stateless facade over the service's HTTP API. The bearer token
// is passed on every call; the client never stores it.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	summaryTimeout time.Duration
	reads          *resilience.Guard
	metrics        *metrics.ClientMetrics
}

// New creates a new API client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", config.BaseURL)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	summaryTimeout := config.SummaryTimeout
	if summaryTimeout <= 0 {
		summaryTimeout = timeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		httpClient:     httpClient,
		timeout:        timeout,
		summaryTimeout: summaryTimeout,
		reads:          resilience.NewGuard(config.Resilience, classifyError),
		metrics:        config.Metrics,
	}, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Signup registers an account. It does not log the user in.
func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	req := map[string]string{"username": username, "email": email, "password": password}
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, "signup", "/signup", "", req, &resp, c.timeout); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	req := map[string]string{"username": username, "password": password}
	var session models.Session
	if err := c.postJSON(ctx, "login", "/login", "", req, &session, c.timeout); err != nil {
		return models.Session{}, err
	}
	if !session.Valid() {
		return models.Session{}, fmt.Errorf("%w: login response is missing token or username", ErrTransport)
	}
	return session, nil
}

// UploadDocuments sends files as one multipart request and returns one
// classification per file, in request order.
func (c *Client) UploadDocuments(ctx context.Context, token string, files []models.UploadFile) ([]models.ClassificationResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		contentType := f.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create form part for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write form part for %s: %w", f.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/upload-documents", token, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		Results []models.ClassificationResult `json:"results"`
	}
	if err := c.do(req, "upload", &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Categories returns the document count per category.
func (c *Client) Categories(ctx context.Context, token string) (models.CategoryIndex, error) {
	var resp struct {
		Categories models.CategoryIndex `json:"categories"`
	}
	if err := c.getJSON(ctx, "categories", "/categories", token, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		resp.Categories = models.CategoryIndex{}
	}
	return resp.Categories, nil
}

// Documents lists the documents in one category.
func (c *Client) Documents(ctx context.Context, token, category string) ([]models.Document, error) {
	path := "/documents?category=" + url.QueryEscape(category)
	var resp struct {
		Documents []models.Document `json:"documents"`
	}
	if err := c.getJSON(ctx, "documents", path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// summarizeResponse always arrives with status 200; failure is flagged by success=false.
type summarizeResponse struct {
	Success bool `json:"success"`
	models.SummaryResult
}

// Summarize asks the service for an AI summary of one document.
func (c *Client) Summarize(ctx context.Context, token, documentID string) (models.SummaryResult, error) {
	req := map[string]string{"document_id": documentID}
	var resp summarizeResponse
	if err := c.postJSON(ctx, "summarize", "/summarize", token, req, &resp, c.summaryTimeout); err != nil {
		return models.SummaryResult{}, err
	}
	if !resp.Success {
		return models.SummaryResult{}, &RemoteError{Operation: "summarize", Status: http.StatusOK}
	}
	if resp.KeyPoints == nil {
		resp.KeyPoints = []string{}
	}
	return resp.SummaryResult, nil
}

// DeleteDocument removes a document and returns the service acknowledgement.
func (c *Client) DeleteDocument(ctx context.Context, token, documentID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodDelete, "/documents/"+url.PathEscape(documentID), token, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(req, "delete", &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "", fmt.Errorf("%w: delete response has no acknowledgement", ErrTransport)
	}
	return resp.Message, nil
}

// DownloadZip fetches an archive of all the user's documents.
func (c *Client) DownloadZip(ctx context.Context, token string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/download-zip", token, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/zip, application/json")

	start := time.Now()
	data, err := c.downloadZip(req)
	c.metrics.ObserveCall("download-zip", outcome(err), time.Since(start))
	return data, err
}

func (c *Client) downloadZip(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download-zip request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
		msg, ok := declaredError(body)
		if !ok {
			msg = "Download failed"
		}
		return nil, &RemoteError{Operation: "download-zip", Status: resp.StatusCode, Message: msg}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read archive: %w", ErrTransport, err)
	}
	return data, nil
}

// LLMStatus reports whether summarization is available.
func (c *Client) LLMStatus(ctx context.Context) (models.LLMStatus, error) {
	var status models.LLMStatus
	if err := c.getJSON(ctx, "llm-status", "/llm-status", "", &status); err != nil {
		return models.LLMStatus{}, err
	}
	return status, nil
}

// Health returns the service health report.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	var health models.Health
	if err := c.getJSON(ctx, "health", "/health", "", &health); err != nil {
		return models.Health{}, err
	}
	return health, nil
}
