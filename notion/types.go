package notion

import (
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
)

// Status is a post's position in the CMS publishing workflow. The values
// mirror the Status select options in the Notion database.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

// Post is a fully validated article sourced from the Notion database.
// Nullable CMS properties map to pointer fields so JSON output distinguishes
// "absent" from "empty".
type Post struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Status        Status   `json:"status"`
	PublishedDate *string  `json:"publishedDate"`
	Tags          []string `json:"tags"`
	Excerpt       *string  `json:"excerpt"`
	CoverImage    *string  `json:"coverImage"`
	Author        *string  `json:"author"`
	IsAdSense     bool     `json:"isAdSense"`
	RelatedCTA    []CTA    `json:"relatedCTA"`
}

// validate is the final gate before a post is handed to callers. A violation
// drops this record only; siblings keep flowing.
func (p *Post) validate() error {
	if p.ID == "" {
		return errors.New("missing id")
	}
	if p.Slug == "" {
		return errors.New("missing slug")
	}
	if p.Status != StatusDraft && p.Status != StatusPublished {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if p.Tags == nil {
		return errors.New("tags must not be nil")
	}
	return nil
}

// Published reports whether the post is visible on the public site.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}

// CTA is a call-to-action record linked to a post through the RelatedCTA
// relation. CTAs live in their own Notion database.
type CTA struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	ButtonText      string  `json:"buttonText"`
	ButtonURL       string  `json:"buttonUrl"`
	BackgroundColor *string `json:"backgroundColor"`
}

// Block is a unit of rich page content as returned by the Notion API.
type Block = notionapi.Block
