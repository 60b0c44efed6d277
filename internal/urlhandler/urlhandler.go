// Package urlhandler reads small text documents from local paths or HTTP URLs.
// It backs the registry import and the existing-content input of the CLI.
package urlhandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// MaxContentSize defines the maximum allowed document size (10MB)
	MaxContentSize = 10 * 1024 * 1024
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent for HTTP requests
	DefaultUserAgent = "fieldgen/1.0"
)

// Config holds configuration for fetching documents from URLs
type Config struct {
	Timeout       time.Duration
	MaxSize       int64
	UserAgent     string
	RetryAttempts int
	Client        *http.Client
}

// DefaultConfig returns a default fetch configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		MaxSize:       MaxContentSize,
		UserAgent:     DefaultUserAgent,
		RetryAttempts: 3,
		Client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Document is a fetched response body.
type Document struct {
	Data        []byte
	ContentType string
	URL         string
}

// IsURL checks if the given string is a valid HTTP or HTTPS URL
func IsURL(input string) bool {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return false
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return false
	}

	return parsed.Scheme != "" && parsed.Host != ""
}

// Fetch downloads urlStr, retrying transient failures with exponential
// backoff. Client errors (4xx) and oversized bodies are not retried.
func Fetch(ctx context.Context, urlStr string, config *Config) (*Document, error) {
	if config == nil {
		config = DefaultConfig()
	}

	operation := func() (*Document, error) {
		return fetchOnce(ctx, urlStr, config)
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithMaxTries(uint(max(config.RetryAttempts, 1))),
		backoff.WithMaxElapsedTime(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}

	return result, nil
}

// fetchOnce performs a single download attempt
func fetchOnce(ctx context.Context, urlStr string, config *Config) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", config.UserAgent)

	client := config.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	if resp.ContentLength > 0 && resp.ContentLength > config.MaxSize {
		return nil, backoff.Permanent(fmt.Errorf("content size (%d bytes) exceeds maximum limit (%d bytes)", resp.ContentLength, config.MaxSize))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > config.MaxSize {
		return nil, backoff.Permanent(fmt.Errorf("content size exceeds maximum limit (%d bytes)", config.MaxSize))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	return &Document{
		Data:        data,
		ContentType: contentType,
		URL:         urlStr,
	}, nil
}

// ReadText returns the text at source, which is either an HTTP(S) URL or a
// local file path. Binary content is rejected.
func ReadText(ctx context.Context, source string, config *Config) (string, error) {
	var data []byte
	if IsURL(source) {
		doc, err := Fetch(ctx, source, config)
		if err != nil {
			return "", err
		}
		data = doc.Data
	} else {
		var err error
		data, err = os.ReadFile(source)
		if err != nil {
			return "", err
		}
	}

	if len(data) > 0 && !isText(mimetype.Detect(data)) {
		return "", fmt.Errorf("%s is not a text document (detected %s)", source, mimetype.Detect(data).String())
	}
	return string(data), nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
