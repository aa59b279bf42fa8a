package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
)

const maxResponseBytes = 1 << 20

// Fetcher looks up the preview descriptor of a remote asset
type Fetcher interface {
	FetchPreview(ctx context.Context, route, name string) (*editor.OutputEntry, error)
}

// StatusError reports a non-200 preview response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("preview lookup returned status %d", e.StatusCode)
}

// HTTPFetcher queries the backend's preview routes
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

// NewHTTPFetcher creates a fetcher for the backend at baseURL
func NewHTTPFetcher(client *http.Client, baseURL string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// FetchPreview implements Fetcher
func (f *HTTPFetcher) FetchPreview(ctx context.Context, route, name string) (*editor.OutputEntry, error) {
	endpoint := fmt.Sprintf("%s%s?name=%s", f.baseURL, route, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build preview request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preview for %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var entry editor.OutputEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode preview for %s: %w", name, err)
	}
	return &entry, nil
}
