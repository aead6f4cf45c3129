// Package wiki fetches plain-text Wikipedia articles through the MediaWiki
// action API.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"codeberg.org/snonux/translore/internal"
	"codeberg.org/snonux/translore/internal/breaker"
	"codeberg.org/snonux/translore/internal/logger"
)

// ErrNotFound is returned when no article matches the search phrase.
var ErrNotFound = errors.New("wikipedia page not found")

// DisambiguationError is returned when the best match is a disambiguation
// page. Options lists the linked candidate titles.
type DisambiguationError struct {
	Title   string
	Options []string
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("%q may refer to: %s", e.Title, strings.Join(e.Options, ", "))
}

// Page is a fetched article.
type Page struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

const maxBodyBytes = 8 << 20

// Client queries one Wikipedia language edition.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *breaker.Breaker
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the api.php URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the given language edition ("en", "de", ...).
func NewClient(lang string, log *logger.Logger, opts ...Option) *Client {
	if lang == "" {
		lang = "en"
	}
	c := &Client{
		endpoint:   fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  fmt.Sprintf("translore/%s (https://codeberg.org/snonux/translore)", internal.Version),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = breaker.New("wikipedia", breaker.Settings{
		IsSuccessful: func(err error) bool {
			var dis *DisambiguationError
			return err == nil || errors.Is(err, ErrNotFound) || errors.As(err, &dis)
		},
	}, log)
	return c
}

// Page resolves phrase to the best matching article and returns its text.
func (c *Client) Page(ctx context.Context, phrase string) (*Page, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		title, err := c.search(ctx, phrase, true)
		if err != nil {
			return nil, err
		}
		return c.fetch(ctx, title)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

// search returns the top title for phrase, following the search suggestion
// once when there is no direct hit.
func (c *Client) search(ctx context.Context, phrase string, followSuggestion bool) (string, error) {
	body, err := c.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {phrase},
		"srlimit":  {"1"},
		"srinfo":   {"suggestion"},
	})
	if err != nil {
		return "", err
	}

	if title := gjson.GetBytes(body, "query.search.0.title").String(); title != "" {
		return title, nil
	}
	if suggestion := gjson.GetBytes(body, "query.searchinfo.suggestion").String(); followSuggestion && suggestion != "" && suggestion != phrase {
		return c.search(ctx, suggestion, false)
	}
	return "", ErrNotFound
}

func (c *Client) fetch(ctx context.Context, title string) (*Page, error) {
	body, err := c.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts|info|pageprops"},
		"explaintext": {"1"},
		"inprop":      {"url"},
		"ppprop":      {"disambiguation"},
		"redirects":   {"1"},
		"titles":      {title},
	})
	if err != nil {
		return nil, err
	}

	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return nil, ErrNotFound
	}
	resolved := page.Get("title").String()
	if page.Get("pageprops.disambiguation").Exists() {
		options, err := c.links(ctx, resolved)
		if err != nil {
			return nil, err
		}
		return nil, &DisambiguationError{Title: resolved, Options: options}
	}

	return &Page{
		Title:   resolved,
		Content: page.Get("extract").String(),
		URL:     page.Get("fullurl").String(),
	}, nil
}

func (c *Client) links(ctx context.Context, title string) ([]string, error) {
	body, err := c.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"links"},
		"plnamespace": {"0"},
		"pllimit":     {"max"},
		"titles":      {title},
	})
	if err != nil {
		return nil, err
	}

	var options []string
	for _, l := range gjson.GetBytes(body, "query.pages.0.links.#.title").Array() {
		options = append(options, l.String())
	}
	return options, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read wikipedia response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned HTTP %d", resp.StatusCode)
	}
	if info := gjson.GetBytes(body, "error.info"); info.Exists() {
		return nil, fmt.Errorf("wikipedia API error: %s", info.String())
	}
	return body, nil
}
