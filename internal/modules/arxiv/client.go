package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueryURL     = "http://export.arxiv.org/api/query"
	defaultDownloadBase = "https://arxiv.org"
	defaultTimeout      = 60 * time.Second
)

// Client talks to the arXiv export API and download mirrors.
type Client struct {
	queryURL     string
	downloadBase string
	httpClient   *http.Client
	logger       *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithQueryURL overrides the export API endpoint.
func WithQueryURL(url string) Option {
	return func(c *Client) { c.queryURL = strings.TrimRight(url, "/") }
}

// WithDownloadBase overrides the artifact download host.
func WithDownloadBase(url string) Option {
	return func(c *Client) { c.downloadBase = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a paper source client.
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		queryURL:     defaultQueryURL,
		downloadBase: defaultDownloadBase,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       logger.Named("arxiv"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the export API for papers matching query, newest first.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	params := neturl.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	return c.fetchFeed(ctx, params)
}

// SearchByIDs resolves papers by explicit external identifiers.
func (c *Client) SearchByIDs(ctx context.Context, ids []string) ([]Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := neturl.Values{}
	params.Set("id_list", strings.Join(ids, ","))
	params.Set("max_results", strconv.Itoa(len(ids)))
	return c.fetchFeed(ctx, params)
}

func (c *Client) fetchFeed(ctx context.Context, params neturl.Values) ([]Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: query returned HTTP %d", ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: malformed feed: %v", ErrSourceUnavailable, err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		papers = append(papers, entryToPaper(entry))
	}
	return papers, nil
}

func entryToPaper(e atomEntry) Paper {
	p := Paper{
		EntryID: strings.TrimSpace(e.ID),
		Title:   normalizeWhitespace(e.Title),
		Summary: strings.TrimSpace(e.Summary),
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.Published = t
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.PDFURL = l.Href
			break
		}
	}
	if p.PDFURL == "" && strings.Contains(p.EntryID, "/abs/") {
		p.PDFURL = strings.Replace(p.EntryID, "/abs/", "/pdf/", 1)
	}
	return p
}

// The export API folds titles over multiple lines.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FetchPDF downloads the paper's PDF into dir under filename. The download is
// idempotent: an existing file is left untouched and no request is made.
func (c *Client) FetchPDF(ctx context.Context, p Paper, dir, filename string) (string, error) {
	if p.PDFURL == "" {
		return "", fmt.Errorf("%w: paper %s has no pdf", ErrSourceUnavailable, p.ShortID())
	}
	dest := filepath.Join(dir, filename)
	if _, err := os.Stat(dest); err == nil {
		c.logger.Debug("pdf already present", zap.String("path", dest))
		return dest, nil
	}
	if err := c.download(ctx, p.PDFURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// FetchSourceArchive downloads the paper's e-print tarball into dir.
// Also idempotent. Papers without a source archive fail softly with
// ErrSourceUnavailable; callers treat that as "no artifact".
func (c *Client) FetchSourceArchive(ctx context.Context, p Paper, dir string) (string, error) {
	dest := filepath.Join(dir, p.ShortID()+".tar.gz")
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	url := c.downloadBase + "/e-print/" + p.ShortID()
	if err := c.download(ctx, url, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (c *Client) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download %s returned HTTP %d", ErrSourceUnavailable, url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	// Write to a temp file first so a partial download never passes the
	// exists-check on retry.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
