// Package rawg implements catalog.Gateway against the RAWG video game API.
//
//	GET {base}/games?key=K&search=Q&page_size=12  → {"results":[{id,name,background_image,released}, ...]}
//	GET {base}/games/{id}?key=K                   → {id,name,background_image,released,...}
//
// Every failure is normalised into an apperror so callers never have to look at
// HTTP details: a 404 on a single title is ErrCatalogNotFound, anything else
// (dial errors, timeouts, non-2xx, bad JSON) is ErrCatalogUnavailable.
package rawg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/catalog"
)

// maxBodyBytes caps how much of an upstream response we are willing to decode.
const maxBodyBytes = 4 << 20

var _ catalog.Gateway = (*Client)(nil)

// Client is safe for concurrent use.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger

	// fetches collapses concurrent lookups of the same title into one request.
	fetches singleflight.Group
}

func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient is New with a caller-supplied transport, used by tests.
func NewWithHTTPClient(cfg Config, hc *http.Client, logger *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	return &Client{
		http:   hc,
		config: cfg,
		logger: logger,
	}
}

type searchResponse struct {
	Results []catalog.Entry `json:"results"`
}

// Search returns at most catalog.PageSize entries in provider order.
// A blank query returns no entries without calling the provider.
// Failures are returned, not logged; the caller owns them.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []catalog.Entry{}, nil
	}

	q := url.Values{}
	q.Set("search", query)
	q.Set("page_size", strconv.Itoa(catalog.PageSize))

	var resp searchResponse
	if _, err := c.get(ctx, "/games", q, &resp); err != nil {
		return nil, apperror.CatalogUnavailable(err)
	}

	if resp.Results == nil {
		return nil, apperror.CatalogUnavailable(fmt.Errorf("rawg: search response has no results field"))
	}
	for i, e := range resp.Results {
		if e.ID <= 0 || e.Name == "" {
			return nil, apperror.CatalogUnavailable(fmt.Errorf("rawg: search result %d is missing id or name", i))
		}
	}

	results := resp.Results
	if len(results) > catalog.PageSize {
		results = results[:catalog.PageSize]
	}
	return results, nil
}

// FetchByID loads a single title.
func (c *Client) FetchByID(ctx context.Context, externalID int64) (*catalog.Entry, error) {
	if externalID <= 0 {
		return nil, apperror.CatalogNotFound(externalID)
	}

	key := strconv.FormatInt(externalID, 10)
	v, err, shared := c.fetches.Do(key, func() (any, error) {
		// The shared call must not die with whichever caller happened to start it;
		// the client timeout still bounds it.
		return c.fetch(context.WithoutCancel(ctx), externalID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("catalog fetch shared", slog.Int64("externalID", externalID))
	}

	entry := *v.(*catalog.Entry)
	return &entry, nil
}

func (c *Client) fetch(ctx context.Context, externalID int64) (*catalog.Entry, error) {
	var entry catalog.Entry
	status, err := c.get(ctx, "/games/"+strconv.FormatInt(externalID, 10), url.Values{}, &entry)
	if status == http.StatusNotFound {
		return nil, apperror.CatalogNotFound(externalID)
	}
	if err != nil {
		c.logger.Warn("catalog fetch failed",
			slog.Int64("externalID", externalID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.CatalogUnavailable(err)
	}
	if entry.ID <= 0 || entry.Name == "" {
		return nil, apperror.CatalogUnavailable(fmt.Errorf("rawg: game %d response is missing id or name", externalID))
	}
	return &entry, nil
}

// get performs one GET and decodes a 2xx JSON body into out.
// The returned status is 0 when no response was received.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) (int, error) {
	u, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return 0, fmt.Errorf("rawg: building url: %w", err)
	}
	if c.config.APIKey != "" {
		q.Set("key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("rawg: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rawg: calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return resp.StatusCode, fmt.Errorf("rawg: %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("rawg: decoding %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}
