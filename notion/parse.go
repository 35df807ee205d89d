package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTitle      = "Untitled"
	defaultCTATitle   = "CTA"
	defaultButtonText = "Learn more"
	defaultButtonURL  = "#"
)

// parsePage decodes one database page into a Post. Every property read checks
// the property's concrete type first; a mismatch or absence falls back to the
// documented default instead of failing. A page without a slug is rejected
// with a nil result: a content-quality gate, not an error.
func (c *Client) parsePage(ctx context.Context, page *notionapi.Page) *Post {
	props := page.Properties

	title := titleText(props["Title"], defaultTitle)
	slug := richText(props["Slug"])
	if slug == "" {
		c.logger.Printf("notion: post %q has no slug, skipping", title)
		return nil
	}

	post := &Post{
		ID:            page.ID.String(),
		Title:         title,
		Slug:          slug,
		Status:        parseStatus(props["Status"]),
		PublishedDate: dateStart(props["Published Date"]),
		Tags:          multiSelectNames(props["Tags"]),
		Excerpt:       optional(richText(props["Excerpt"])),
		Author:        peopleName(props["Author"]),
		IsAdSense:     checkbox(props["IsAdSense"]),
		RelatedCTA:    []CTA{},
	}

	if url := fileURL(props["Cover Image"]); url != "" {
		resolved := url
		if c.images != nil {
			resolved = c.images.EnsureDownloaded(ctx, url)
		}
		post.CoverImage = &resolved
	}

	if ids := relationIDs(props["RelatedCTA"]); len(ids) > 0 {
		post.RelatedCTA = c.fetchCTAs(ctx, ids)
	}

	if err := post.validate(); err != nil {
		c.logger.Printf("notion: dropping page %s: %v", page.ID, err)
		return nil
	}
	return post
}

// fetchCTAs resolves the RelatedCTA relation with one page lookup per ID.
// Lookups run concurrently; a failed lookup drops that CTA only, preserving
// the relation order of the rest.
func (c *Client) fetchCTAs(ctx context.Context, ids []string) []CTA {
	found := make([]*CTA, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			page, err := c.pages.Get(gctx, notionapi.PageID(id))
			if err != nil {
				c.logger.Printf("notion: fetch CTA page %s: %v", id, err)
				return nil
			}
			found[i] = parseCTA(page)
			return nil
		})
	}
	_ = g.Wait()

	ctas := make([]CTA, 0, len(ids))
	for _, cta := range found {
		if cta != nil {
			ctas = append(ctas, *cta)
		}
	}
	return ctas
}

func parseCTA(page *notionapi.Page) *CTA {
	props := page.Properties

	// CTA databases name their title column either "Title" or "Name".
	titleProp := props["Title"]
	if _, ok := titleProp.(*notionapi.TitleProperty); !ok {
		titleProp = props["Name"]
	}

	cta := &CTA{
		ID:              page.ID.String(),
		Title:           titleText(titleProp, defaultCTATitle),
		Description:     optional(richText(props["Description"])),
		ButtonText:      defaultButtonText,
		ButtonURL:       defaultButtonURL,
		BackgroundColor: optional(selectName(props["Background Color"])),
	}
	if text := richText(props["Button Text"]); text != "" {
		cta.ButtonText = text
	}
	if url := urlValue(props["Button URL"]); url != "" {
		cta.ButtonURL = url
	}
	return cta
}

// parseStatus defaults a missing or mismatched property to Draft. A select
// value outside the known workflow states is carried through so validation
// rejects the record, matching how unknown states are treated upstream.
func parseStatus(p notionapi.Property) Status {
	name := selectName(p)
	if name == "" {
		return StatusDraft
	}
	return Status(name)
}

// --- Property decoders ---
//
// Each decoder is one branch of the discriminated union the Notion API uses
// for page properties: assert the concrete type, read the value, or fall back.

func titleText(p notionapi.Property, fallback string) string {
	t, ok := p.(*notionapi.TitleProperty)
	if !ok || len(t.Title) == 0 {
		return fallback
	}
	return t.Title[0].PlainText
}

func richText(p notionapi.Property) string {
	rt, ok := p.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}

func selectName(p notionapi.Property) string {
	s, ok := p.(*notionapi.SelectProperty)
	if !ok {
		return ""
	}
	return s.Select.Name
}

func dateStart(p notionapi.Property) *string {
	d, ok := p.(*notionapi.DateProperty)
	if !ok || d.Date == nil || d.Date.Start == nil {
		return nil
	}
	start := time.Time(*d.Date.Start)
	s := start.Format(time.RFC3339)
	if start.Equal(start.Truncate(24 * time.Hour)) {
		s = start.Format("2006-01-02")
	}
	return &s
}

// multiSelectNames preserves the source order of the options. It never
// returns nil: an absent property is an empty tag list.
func multiSelectNames(p notionapi.Property) []string {
	ms, ok := p.(*notionapi.MultiSelectProperty)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(ms.MultiSelect))
	for _, o := range ms.MultiSelect {
		names = append(names, o.Name)
	}
	return names
}

// fileURL reads the first entry of a files property, which may be an external
// link or a Notion-hosted (signed, expiring) file.
func fileURL(p notionapi.Property) string {
	f, ok := p.(*notionapi.FilesProperty)
	if !ok || len(f.Files) == 0 {
		return ""
	}
	file := f.Files[0]
	switch {
	case file.External != nil && file.External.URL != "":
		return file.External.URL
	case file.File != nil && file.File.URL != "":
		return file.File.URL
	}
	return ""
}

func peopleName(p notionapi.Property) *string {
	pp, ok := p.(*notionapi.PeopleProperty)
	if !ok || len(pp.People) == 0 {
		return nil
	}
	return optional(pp.People[0].Name)
}

func checkbox(p notionapi.Property) bool {
	cb, ok := p.(*notionapi.CheckboxProperty)
	return ok && cb.Checkbox
}

func relationIDs(p notionapi.Property) []string {
	rel, ok := p.(*notionapi.RelationProperty)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rel.Relation))
	for _, r := range rel.Relation {
		ids = append(ids, string(r.ID))
	}
	return ids
}

func urlValue(p notionapi.Property) string {
	u, ok := p.(*notionapi.URLProperty)
	if !ok {
		return ""
	}
	return u.URL
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
