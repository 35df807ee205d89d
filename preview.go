package notionpress

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handlePreviewLogin exchanges the preview secret for a session cookie.
// Attempts are rate-limited per IP so the secret cannot be brute-forced.
func (a *App) handlePreviewLogin(c echo.Context) error {
	if !a.previewLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	secret := c.FormValue("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.Config.PreviewSecret)) != 1 {
		return c.String(http.StatusUnauthorized, "Invalid preview secret")
	}
	if err := setPreviewSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func handlePreviewLogout(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handlePreview returns a post by slug regardless of publish status, as JSON,
// together with its body blocks. Image URLs stay remote here; the preview
// page routes them through the image proxy instead of the build cache.
func (a *App) handlePreview(c echo.Context) error {
	if !isPreview(c) {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}
	slug := c.Param("slug")
	ctx := c.Request().Context()

	post := a.CMS.GetBySlugIncludingDrafts(ctx, slug)
	if post == nil {
		return c.NoContent(http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"post":   post,
		"blocks": a.CMS.GetBlocks(ctx, post.ID),
	})
}
