// Package assets maintains a content-addressed local cache of remote CMS
// images. Notion serves files through time-limited signed URLs whose query
// string rotates between requests; keying the cache on the URL with the query
// string stripped keeps the key stable across builds, so an image is fetched
// once and reused forever.
package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// urlPrefix is the site-relative prefix under which cached images are served.
const urlPrefix = "/images/notion/"

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
}

// Cache downloads remote images into two mirrored directory trees: a public
// staging tree read during development and a dist tree shipped by the build.
// Payloads are written to both because the build pipeline may read from
// either before the other is finalized.
type Cache struct {
	publicDir string
	distDir   string

	client   *http.Client
	logger   *log.Logger
	maxWidth int       // JPEG downscale bound, 0 disables
	manifest *Manifest // optional download log
}

// Option configures optional Cache behavior.
type Option func(*Cache)

// WithDirs overrides the mirrored output trees.
func WithDirs(publicDir, distDir string) Option {
	return func(c *Cache) {
		c.publicDir = publicDir
		c.distDir = distDir
	}
}

// WithHTTPClient sets the client used for image downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cache) {
		c.client = hc
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithMaxWidth enables downscaling of JPEG payloads wider than px pixels.
func WithMaxWidth(px int) Option {
	return func(c *Cache) {
		c.maxWidth = px
	}
}

// WithManifest records every completed download in m.
func WithManifest(m *Manifest) Option {
	return func(c *Cache) {
		c.manifest = m
	}
}

// New builds a Cache rooted at public/images/notion and dist/images/notion.
func New(opts ...Option) *Cache {
	c := &Cache{
		publicDir: "public/images/notion",
		distDir:   "dist/images/notion",
		client:    http.DefaultClient,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// hashedFilename derives the cache filename for a remote URL: a 12-hex-digit
// digest of the URL without its query string, plus the source extension.
func hashedFilename(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "?")
	sum := md5.Sum([]byte(base))
	return hex.EncodeToString(sum[:])[:12] + extension(base)
}

// extension pulls the file extension from the URL path, constrained to the
// allow-list. Anything else becomes .jpg.
func extension(base string) string {
	if u, err := url.Parse(base); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); allowedExts[ext] {
			return ext
		}
	}
	return ".jpg"
}

// LocalPath computes the cache-relative path for rawURL without touching the
// network or filesystem. Already-local paths pass through unchanged.
func (c *Cache) LocalPath(rawURL string) string {
	if strings.HasPrefix(rawURL, "/") {
		return rawURL
	}
	return urlPrefix + hashedFilename(rawURL)
}

// Exists reports whether the asset for rawURL is present on disk. Presence in
// either mirrored tree counts as cached.
func (c *Cache) Exists(rawURL string) bool {
	if strings.HasPrefix(rawURL, "/") {
		_, err := os.Stat(filepath.Join("public", filepath.FromSlash(rawURL)))
		return err == nil
	}
	name := hashedFilename(rawURL)
	for _, dir := range []string{c.distDir, c.publicDir} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// EnsureDownloaded fetches rawURL into both cache trees and returns the local
// path. It is idempotent: an artifact already in the dist tree short-circuits
// without network access. On any failure it logs a warning and returns the
// original URL unchanged so rendering proceeds with the remote (possibly
// expiring) link.
func (c *Cache) EnsureDownloaded(ctx context.Context, rawURL string) string {
	if strings.HasPrefix(rawURL, "/") {
		return rawURL
	}
	name := hashedFilename(rawURL)
	localPath := urlPrefix + name

	// dist is written second, so a dist hit means both copies landed.
	if _, err := os.Stat(filepath.Join(c.distDir, name)); err == nil {
		return localPath
	}

	data, err := c.fetch(ctx, rawURL)
	if err != nil {
		c.logger.Printf("assets: download %s: %v", rawURL, err)
		return rawURL
	}

	if c.maxWidth > 0 && (strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg")) {
		// Only JPEG sources are downscaled: the cache filename encodes the
		// source extension and must stay stable across builds.
		if scaled, ok := downscale(data, c.maxWidth); ok {
			data = scaled
		}
	}

	for _, dir := range []string{c.publicDir, c.distDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.logger.Printf("assets: create %s: %v", dir, err)
			return rawURL
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			c.logger.Printf("assets: write %s: %v", filepath.Join(dir, name), err)
			return rawURL
		}
	}

	if c.manifest != nil {
		if err := c.manifest.Record(rawURL, localPath, len(data)); err != nil {
			c.logger.Printf("assets: record %s: %v", localPath, err)
		}
	}
	return localPath
}

func (c *Cache) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// EnsureDownloadedBatch downloads the unique remote URLs in urls concurrently
// and returns a lookup from original URL to resolved path. Empty strings and
// already-local paths are skipped.
func (c *Cache) EnsureDownloadedBatch(ctx context.Context, urls []string) map[string]string {
	seen := make(map[string]struct{}, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || strings.HasPrefix(u, "/") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	resolved := make(map[string]string, len(unique))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range unique {
		g.Go(func() error {
			p := c.EnsureDownloaded(gctx, u)
			mu.Lock()
			resolved[u] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return resolved
}
