package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ExportClient pulls the movement extract from the reporting platform:
// OAuth client-credentials token, asynchronous export job, poll until
// done, download the data stream.
type ExportClient struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	pollInterval time.Duration
	pollTimeout  time.Duration

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

func NewExportClient(cfg ExportConfig) *ExportClient {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 2 * time.Minute
	}
	return &ExportClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		now:          time.Now,
	}
}

// Download runs the full export cycle and returns the raw CSV bytes.
func (c *ExportClient) Download(ctx context.Context) ([]byte, error) {
	jobID, err := c.createJob(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}
	return c.downloadJobData(ctx, jobID)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// accessToken reuses the cached token until one minute before expiry.
func (c *ExportClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("export token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("export token status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("export token response had no access_token")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	log.Printf("export token refreshed expires_in=%ds", tok.ExpiresIn)
	return c.token, nil
}

type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (c *ExportClient) createJob(ctx context.Context) (string, error) {
	var job jobResponse
	if err := c.doJSON(ctx, "POST", c.baseURL+"/jobs", strings.NewReader(`{"format":"csv"}`), &job); err != nil {
		return "", fmt.Errorf("creating export job: %w", err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("export job response had no id")
	}
	log.Printf("export job created id=%s", job.ID)
	return job.ID, nil
}

func (c *ExportClient) waitForJob(ctx context.Context, jobID string) error {
	deadline := c.now().Add(c.pollTimeout)
	for {
		var job jobResponse
		if err := c.doJSON(ctx, "GET", c.baseURL+"/jobs/"+jobID, nil, &job); err != nil {
			return fmt.Errorf("polling export job %s: %w", jobID, err)
		}
		switch job.Status {
		case "completed":
			return nil
		case "failed":
			return fmt.Errorf("export job %s failed: %s", jobID, job.Error)
		}
		if c.now().After(deadline) {
			return fmt.Errorf("export job %s timed out after %s (status %s)", jobID, c.pollTimeout, job.Status)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *ExportClient) downloadJobData(ctx context.Context, jobID string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/jobs/"+jobID+"/data", nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading export data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading export data: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export data status %d: %s", resp.StatusCode, truncateBody(body))
	}
	log.Printf("export data downloaded job=%s bytes=%d", jobID, len(body))
	return body, nil
}

func (c *ExportClient) doJSON(ctx context.Context, method, target string, body io.Reader, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(respBody))
	}
	return json.Unmarshal(respBody, out)
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
