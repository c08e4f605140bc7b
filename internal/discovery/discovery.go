package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoSpecFound reports that no candidate path served a spec document.
var ErrNoSpecFound = errors.New("no spec document found")

// maxProbeBytes caps how much of an untrusted response body is read
// while deciding whether it looks like a spec document.
const maxProbeBytes = 10 << 20

// Doer issues HTTP requests. Injectable deps make the prober fully
// testable without a network.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Candidate is one URL that answered like a spec document.
type Candidate struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Prober checks well-known documentation paths under a base URL. It
// sends plain GETs only: no payloads, no credentials, no crawling.
type Prober struct {
	client Doer
	paths  []string
}

// New creates a Prober. A nil client falls back to http.DefaultClient;
// empty paths mean DefaultPaths.
func New(client Doer, paths []string) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	return &Prober{client: client, paths: paths}
}

// Discover probes every candidate path in list order and returns all
// hits in that order.
func (p *Prober) Discover(ctx context.Context, baseURL string) ([]Candidate, error) {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return nil, err
	}

	var found []Candidate
	for _, path := range p.paths {
		if cand, ok := p.probe(ctx, base, path); ok {
			found = append(found, cand)
		}
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
	}
	if len(found) == 0 {
		return nil, ErrNoSpecFound
	}
	return found, nil
}

// First probes in list order and stops at the first hit.
func (p *Prober) First(ctx context.Context, baseURL string) (Candidate, error) {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return Candidate{}, err
	}
	for _, path := range p.paths {
		if cand, ok := p.probe(ctx, base, path); ok {
			return cand, nil
		}
		if ctx.Err() != nil {
			return Candidate{}, ctx.Err()
		}
	}
	return Candidate{}, ErrNoSpecFound
}

// probe fetches one candidate and applies the acceptance checks:
// HTTP 200, a JSON content type, and a JSON object carrying a "paths"
// key. Anything else is skipped quietly; targets serve all kinds of
// noise on these paths.
func (p *Prober) probe(ctx context.Context, base, path string) (Candidate, bool) {
	url := base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Candidate{}, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Trace().Str("url", url).Err(err).Msg("probe failed")
		return Candidate{}, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Candidate{}, false
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return Candidate{}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBytes))
	if err != nil {
		return Candidate{}, false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return Candidate{}, false
	}
	if _, ok := doc["paths"]; !ok {
		return Candidate{}, false
	}

	log.Debug().Str("url", url).Int("bytes", len(body)).Msg("spec document found")
	return Candidate{URL: url, Path: path, ContentType: contentType, Size: len(body)}, true
}

// normalizeBase validates the target and strips a trailing slash. A
// scheme-less target defaults to https.
func normalizeBase(baseURL string) (string, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return "", fmt.Errorf("empty base url")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/"), nil
}
