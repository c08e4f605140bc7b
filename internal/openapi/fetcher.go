package openapi

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxSpecBytes caps how much of a remote spec document is read.
const maxSpecBytes = 10 << 20

// DefaultFetchTimeout bounds a single spec download.
const DefaultFetchTimeout = 10 * time.Second

// Fetcher downloads spec documents over HTTP or reads them from disk.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds a fetcher. insecure disables TLS certificate
// verification for lab targets with self-signed certificates.
func NewFetcher(timeout time.Duration, insecure bool) *Fetcher {
	return &Fetcher{client: NewHTTPClient(timeout, insecure)}
}

// NewHTTPClient builds the HTTP client used for spec fetching and
// discovery probing: bounded timeout, proxy from environment, optional
// TLS-verify skip.
func NewHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Load reads a spec from an http(s) URL or a local file path.
func (f *Fetcher) Load(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.Fetch(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	log.Debug().Str("file", source).Int("bytes", len(data)).Msg("loaded spec document")
	return data, nil
}

// Fetch downloads a spec document from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build spec request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch spec: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSpecBytes))
	if err != nil {
		return nil, fmt.Errorf("read spec body: %w", err)
	}

	log.Debug().Str("url", rawURL).Int("bytes", len(data)).Msg("fetched spec document")
	return data, nil
}
