// Package githost implements showcase.Source against a GitHub-style host:
// a REST endpoint for branch listings and a raw endpoint for file bytes.
package githost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/metrics"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

const (
	defaultBranchesPerPage = 100
	defaultMaxBranchPages  = 10
)

// Config controls how the client talks to the host.
type Config struct {
	Hosts showcase.Hosts
	// Token is sent as a bearer token when set.
	Token           string
	BranchesPerPage int
	MaxBranchPages  int
}

// Client lists branches and fetches raw files.
type Client struct {
	fetcher Fetcher
	cfg     Config
	logger  *zap.Logger
}

type branchPayload struct {
	Name string `json:"name"`
}

// New builds a Client over the given Fetcher.
func New(fetcher Fetcher, cfg Config, logger *zap.Logger) *Client {
	if cfg.BranchesPerPage <= 0 {
		cfg.BranchesPerPage = defaultBranchesPerPage
	}
	if cfg.MaxBranchPages <= 0 {
		cfg.MaxBranchPages = defaultMaxBranchPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{fetcher: fetcher, cfg: cfg, logger: logger}
}

// ListBranches returns branch names in host order, following pages until a
// short page is returned. Any non-2xx response is a transport error.
func (c *Client) ListBranches(ctx context.Context, projectID int) ([]string, error) {
	base := c.cfg.Hosts.BranchesURL(projectID)
	var names []string
	for page := 1; page <= c.cfg.MaxBranchPages; page++ {
		url := fmt.Sprintf("%s?per_page=%d&page=%d", base, c.cfg.BranchesPerPage, page)
		start := time.Now()
		resp, err := c.fetcher.Fetch(ctx, Request{URL: url, Headers: c.headers("application/vnd.github+json")})
		if err != nil {
			metrics.ObserveFetch("branches", "error", time.Since(start))
			return nil, fmt.Errorf("%w: list branches: %w", showcase.ErrTransport, err)
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			metrics.ObserveFetch("branches", "error", time.Since(start))
			return nil, fmt.Errorf("%w: list branches: unexpected status %d from %s",
				showcase.ErrTransport, resp.StatusCode, url)
		}
		metrics.ObserveFetch("branches", "ok", time.Since(start))

		var payload []branchPayload
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			return nil, fmt.Errorf("%w: decode branches: %w", showcase.ErrTransport, err)
		}
		for _, b := range payload {
			names = append(names, b.Name)
		}
		if len(payload) < c.cfg.BranchesPerPage {
			break
		}
	}
	c.logger.Debug("branches listed", zap.Int("project_id", projectID), zap.Int("count", len(names)))
	return names, nil
}

// FetchFile returns the file body on 200 and reports absence otherwise.
func (c *Client) FetchFile(ctx context.Context, projectID int, branch, path string) (string, bool, error) {
	url := c.cfg.Hosts.RawFileURL(projectID, branch, path)
	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, Request{URL: url, Headers: c.headers("")})
	if err != nil {
		metrics.ObserveFetch("file", "error", time.Since(start))
		return "", false, fmt.Errorf("%w: fetch %s: %w", showcase.ErrTransport, url, err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ObserveFetch("file", "absent", time.Since(start))
		return "", false, nil
	}
	metrics.ObserveFetch("file", "ok", time.Since(start))
	return string(resp.Body), true, nil
}

func (c *Client) headers(accept string) http.Header {
	h := http.Header{}
	if accept != "" {
		h.Set("Accept", accept)
	}
	if c.cfg.Token != "" {
		h.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return h
}
