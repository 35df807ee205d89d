package notionpress

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// proxyAllowedHosts is the explicit allow-list for proxied image origins:
// Notion's S3 buckets, Notion itself, and the stock-photo host used for
// external covers.
var proxyAllowedHosts = []string{
	"s3.us-west-2.amazonaws.com",
	"prod-files-secure.s3.us-west-2.amazonaws.com",
	"www.notion.so",
	"images.unsplash.com",
}

func proxyHostAllowed(host string) bool {
	for _, h := range proxyAllowedHosts {
		if host == h {
			return true
		}
	}
	return false
}

// handleImageProxy streams a remote CMS image back to the client. Notion's
// signed URLs expire after about an hour; previewing unpublished content
// routes images through here so the edge can cache them past expiry.
//
// GET /api/image-proxy?url=<encoded-image-url>&token=<preview-secret>
func (a *App) handleImageProxy(c echo.Context) error {
	token := c.QueryParam("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Config.PreviewSecret)) != 1 {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	raw := c.QueryParam("url")
	if raw == "" {
		return c.String(http.StatusBadRequest, "Missing url parameter")
	}
	u, err := url.Parse(raw)
	if err != nil || !proxyHostAllowed(u.Hostname()) {
		return c.String(http.StatusBadRequest, "Invalid image URL")
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, raw, nil)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image URL")
	}
	resp, err := a.proxyClient.Do(req)
	if err != nil {
		c.Logger().Errorf("image proxy: fetch %s: %v", raw, err)
		return c.String(http.StatusBadGateway, "Failed to fetch image")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.String(http.StatusBadGateway, "Failed to fetch image")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=3600, s-maxage=3600")
	c.Response().Header().Set("CDN-Cache-Control", "public, max-age=3600")
	return c.Stream(http.StatusOK, contentType, resp.Body)
}
