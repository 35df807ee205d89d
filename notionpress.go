// Package notionpress is a blog content engine backed by a Notion database.
// At build time it ingests posts and rewrites the CMS's time-limited image
// URLs through a filesystem asset cache. At serve time it exposes a small
// HTTP surface on Echo: authenticated draft preview, an image proxy for
// not-yet-cached assets, RSS, sitemap, and a portfolio API.
package notionpress

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/miya025/notionpress/notion"
)

// App is the serve-time application. It wires together the CMS client, the
// published-post cache, middleware, and routes. Image localization is left
// off at serve time: the request path must not write to the filesystem.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	CMS      *notion.Client
	Posts    *PostCache
	Projects []Project

	previewLimiter *rateLimiter
	proxyClient    *http.Client
}

// New validates the configuration and builds an App. Missing CMS credentials
// or secrets are configuration errors and fail immediately.
func New(cfg SiteConfig) (*App, error) {
	cfg.setDefaults()
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("notionpress: SessionSecret is required")
	}
	if cfg.PreviewSecret == "" {
		return nil, fmt.Errorf("notionpress: PreviewSecret is required")
	}

	cms, err := notion.NewClient(notion.Env{
		Token:      cfg.NotionToken,
		DatabaseID: cfg.NotionDatabaseID,
	})
	if err != nil {
		return nil, fmt.Errorf("notionpress: init CMS client: %w", err)
	}

	a := &App{
		Config:         cfg,
		Echo:           echo.New(),
		CMS:            cms,
		Posts:          NewPostCache(cms, cfg.PostCacheTTL),
		Projects:       DefaultProjects(),
		previewLimiter: newRateLimiter(5, time.Minute),
		proxyClient:    http.DefaultClient,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// Start runs the HTTP server until shutdown.
func (a *App) Start() error {
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.PublicDir)
	e.Static("/images", filepath.Join(a.Config.PublicDir, "images"))

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/api/image-proxy", a.handleImageProxy)
	e.GET("/api/projects", a.handleProjects)

	// Preview routes serve draft content behind a session gated on PreviewSecret.
	e.POST("/preview/login/", a.handlePreviewLogin)
	e.POST("/preview/logout/", handlePreviewLogout)
	e.GET("/preview/:slug/", a.handlePreview)
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /preview/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}
