package notionpress

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// SiteConfig holds all configuration for a notionpress site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for the RSS feed
	Author      string // Author name for the RSS feed

	Addr string // Listen address (default ":3000")

	NotionToken      string // Required: Notion integration token
	NotionDatabaseID string // Required: posts database ID

	PreviewSecret string // Required for serving: preview login + image proxy token
	SessionSecret string // Required for serving: session encryption secret
	CookieSecure  bool   // Set true behind HTTPS

	PublicDir string // Static/staging tree (default "public")
	DistDir   string // Build output tree (default "dist")

	ManifestPath  string // Asset manifest SQLite path, "" disables
	MaxImageWidth int    // Downscale bound for cached JPEGs, 0 disables

	PostCacheTTL time.Duration // Published-post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.DistDir == "" {
		c.DistDir = "dist"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// ConfigFromEnv assembles a SiteConfig from environment variables. Required
// values are not checked here; New and Build fail fast on what they need.
func ConfigFromEnv() SiteConfig {
	maxWidth := 0
	if v := os.Getenv("MAX_IMAGE_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxWidth = n
		}
	}
	return SiteConfig{
		Name:             os.Getenv("SITE_NAME"),
		URL:              strings.TrimSuffix(os.Getenv("SITE_URL"), "/"),
		Description:      os.Getenv("SITE_DESCRIPTION"),
		Author:           os.Getenv("SITE_AUTHOR"),
		Addr:             os.Getenv("ADDR"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),
		PreviewSecret:    os.Getenv("PREVIEW_SECRET"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CookieSecure:     strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		ManifestPath:     os.Getenv("ASSET_MANIFEST_PATH"),
		MaxImageWidth:    maxWidth,
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("notionpress: required environment variable %s is not set", key)
	}
	return v
}
