// Package menu fetches canteen menu snapshots from the remote menu API.
package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Proton-105/mensa-bot/internal/errors"
	"github.com/Proton-105/mensa-bot/internal/domain"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

const (
	// DefaultBaseURL points at the public menu API.
	DefaultBaseURL = "https://mensa.leonschreiber.de"

	apiName      = "menu"
	maxBodyBytes = 4 << 20
)

// Client loads the current menu of a canteen. Every call hits the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a menu Client. Requests are bounded by timeout in addition to the caller's context.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch returns the menu snapshot of the given canteen.
func (c *Client) Fetch(ctx context.Context, canteenID int) (*domain.MenuSnapshot, error) {
	start := time.Now()

	snapshot, err := c.fetch(ctx, canteenID)
	if err != nil {
		metrics.RecordMenuFetch("error", time.Since(start))
		c.log.Warn("menu fetch failed", slog.Int("canteen_id", canteenID), slog.Any("error", err))
		return nil, apperrors.NewExternalAPIError(apiName, err)
	}

	metrics.RecordMenuFetch("ok", time.Since(start))
	c.log.Debug("menu fetched",
		slog.Int("canteen_id", canteenID),
		slog.Int("sections", len(snapshot.Sections)),
		slog.Duration("duration", time.Since(start)),
	)

	return snapshot, nil
}

func (c *Client) fetch(ctx context.Context, canteenID int) (*domain.MenuSnapshot, error) {
	url := fmt.Sprintf("%s/api/menu/%d?includeHistoric=true", c.baseURL, canteenID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	var snapshot domain.MenuSnapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}

	return &snapshot, nil
}
