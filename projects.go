package notionpress

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Project is a portfolio entry shown on the sample portfolio page. Projects
// are static site data, not CMS content.
type Project struct {
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	ColorTheme  string   `json:"colorTheme"`
}

// DefaultProjects returns the built-in portfolio entries. Sites override
// App.Projects to supply their own.
func DefaultProjects() []Project {
	return []Project{
		{
			Title:       "Code diff translator",
			Subtitle:    "A developer tool with user accounts and external API integration",
			Description: "Extracts the changed hunks from a code diff and machine-translates only those, keeping review context intact.",
			URL:         "https://diff-note.vercel.app/",
			Tags:        []string{"Auth", "API", "Next.js", "Supabase", "OpenAI"},
			ColorTheme:  "blue",
		},
		{
			Title:       "AI-search SEO audit",
			Subtitle:    "A prototype for diagnosing generative-engine optimization",
			Description: "Analyzes how AI search surfaces a site and reports concrete optimization findings with minimal configuration.",
			URL:         "https://ai-user-diagnosis.vercel.app/",
			Tags:        []string{"AI", "Prototype", "Astro", "Puppeteer"},
			ColorTheme:  "green",
		},
	}
}

func (a *App) handleProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Projects)
}
