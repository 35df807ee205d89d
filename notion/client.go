// Package notion ingests blog content from a Notion database: it queries
// pages, decodes their loosely typed properties into validated Post values,
// and rewrites the CMS's time-limited image URLs through a local asset cache
// when running in a build context.
package notion

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jomei/notionapi"
)

// Env supplies CMS credentials in runtimes that inject configuration per
// request (edge/serverless deployments). Empty fields fall back to the
// NOTION_TOKEN and NOTION_DATABASE_ID process environment variables.
type Env struct {
	Token      string
	DatabaseID string
}

func (e Env) token() string {
	if e.Token != "" {
		return e.Token
	}
	return os.Getenv("NOTION_TOKEN")
}

func (e Env) databaseID() string {
	if e.DatabaseID != "" {
		return e.DatabaseID
	}
	return os.Getenv("NOTION_DATABASE_ID")
}

// The fetchers depend on narrow views of the Notion SDK services so tests can
// substitute fakes without a network round trip.
type databaseQuerier interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type pageGetter interface {
	Get(ctx context.Context, id notionapi.PageID) (*notionapi.Page, error)
}

type blockLister interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// ImageLocalizer mirrors the asset cache operation the parser and block
// fetcher need. A nil localizer means remote URLs pass through unchanged,
// which is the correct behavior at request time where the filesystem is not
// writable.
type ImageLocalizer interface {
	EnsureDownloaded(ctx context.Context, url string) string
}

// Client fetches and parses posts from a single Notion database.
type Client struct {
	databases  databaseQuerier
	pages      pageGetter
	blocks     blockLister
	databaseID notionapi.DatabaseID
	images     ImageLocalizer
	logger     *log.Logger
	httpClient *http.Client
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithImages enables build-time image localization: cover images and image
// blocks are downloaded through cache and replaced with local paths.
func WithImages(cache ImageLocalizer) Option {
	return func(c *Client) {
		c.images = cache
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPClient sets the HTTP client used for Notion API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient resolves credentials from env and builds a Client. Missing
// credentials are a configuration error and fail immediately; nothing in this
// package degrades an absent token into empty results.
func NewClient(env Env, opts ...Option) (*Client, error) {
	token := env.token()
	if token == "" {
		return nil, fmt.Errorf("notion: NOTION_TOKEN is not set")
	}
	databaseID := env.databaseID()
	if databaseID == "" {
		return nil, fmt.Errorf("notion: NOTION_DATABASE_ID is not set")
	}

	c := &Client{
		databaseID: notionapi.DatabaseID(databaseID),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []notionapi.ClientOption
	if c.httpClient != nil {
		apiOpts = append(apiOpts, notionapi.WithHTTPClient(c.httpClient))
	}
	api := notionapi.NewClient(notionapi.Token(token), apiOpts...)
	c.databases = api.Database
	c.pages = api.Page
	c.blocks = api.Block
	return c, nil
}
