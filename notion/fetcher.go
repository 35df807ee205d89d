package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"golang.org/x/sync/errgroup"
)

// blockPageSize bounds how many child blocks a single page fetch returns.
const blockPageSize = 100

// ListPublished returns every published post, newest first. The sort is
// applied server-side and the parse fan-out joins in input order, so callers
// see the query order even when parses complete out of order. An unreachable
// CMS is fatal for the whole call; individual bad records are dropped.
func (c *Client) ListPublished(ctx context.Context) ([]Post, error) {
	resp, err := c.databases.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Select:   &notionapi.SelectFilterCondition{Equals: string(StatusPublished)},
		},
		Sorts: []notionapi.SortObject{
			{Property: "Published Date", Direction: notionapi.SortOrderDESC},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("notion: query posts: %w", err)
	}

	parsed := make([]*Post, len(resp.Results))
	g, gctx := errgroup.WithContext(ctx)
	for i := range resp.Results {
		g.Go(func() error {
			parsed[i] = c.parsePage(gctx, &resp.Results[i])
			return nil
		})
	}
	_ = g.Wait()

	posts := make([]Post, 0, len(parsed))
	for _, p := range parsed {
		if p != nil {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

// GetBySlug returns the published post with the given slug, or nil when no
// such post exists. Transport failures also yield nil: callers treat an
// unreachable CMS the same as "not found" for single lookups.
func (c *Client) GetBySlug(ctx context.Context, slug string) *Post {
	return c.getBySlug(ctx, slug, true)
}

// GetBySlugIncludingDrafts is the preview variant of GetBySlug: it matches
// drafts as well as published posts.
func (c *Client) GetBySlugIncludingDrafts(ctx context.Context, slug string) *Post {
	return c.getBySlug(ctx, slug, false)
}

func (c *Client) getBySlug(ctx context.Context, slug string, publishedOnly bool) *Post {
	slugFilter := notionapi.PropertyFilter{
		Property: "Slug",
		RichText: &notionapi.TextFilterCondition{Equals: slug},
	}
	var filter notionapi.Filter = slugFilter
	if publishedOnly {
		filter = notionapi.AndCompoundFilter{
			slugFilter,
			notionapi.PropertyFilter{
				Property: "Status",
				Select:   &notionapi.SelectFilterCondition{Equals: string(StatusPublished)},
			},
		}
	}

	resp, err := c.databases.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{Filter: filter})
	if err != nil {
		c.logger.Printf("notion: fetch post %q: %v", slug, err)
		return nil
	}
	if len(resp.Results) == 0 {
		return nil
	}
	return c.parsePage(ctx, &resp.Results[0])
}

// GetBlocks returns a page's child blocks. A fetch failure is soft: a post
// body that cannot be loaded must not fail page rendering, so the result is
// simply empty. With image localization enabled, image blocks are rewritten
// in place to local cache paths, best effort per block.
func (c *Client) GetBlocks(ctx context.Context, pageID string) []Block {
	resp, err := c.blocks.GetChildren(ctx, notionapi.BlockID(pageID), &notionapi.Pagination{
		PageSize: blockPageSize,
	})
	if err != nil {
		c.logger.Printf("notion: fetch blocks for page %s: %v", pageID, err)
		return []Block{}
	}

	blocks := []Block(resp.Results)
	if c.images != nil {
		c.localizeBlockImages(ctx, blocks)
	}
	return blocks
}

func (c *Client) localizeBlockImages(ctx context.Context, blocks []Block) {
	for _, b := range blocks {
		img, ok := b.(*notionapi.ImageBlock)
		if !ok {
			continue
		}
		// The cache degrades to returning the remote URL on failure, so a
		// block that cannot be localized keeps its original reference.
		switch {
		case img.Image.External != nil && img.Image.External.URL != "":
			img.Image.External.URL = c.images.EnsureDownloaded(ctx, img.Image.External.URL)
		case img.Image.File != nil && img.Image.File.URL != "":
			img.Image.File.URL = c.images.EnsureDownloaded(ctx, img.Image.File.URL)
		}
	}
}
