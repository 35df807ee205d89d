package notionpress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/miya025/notionpress/assets"
	"github.com/miya025/notionpress/notion"
)

// BuildResult summarizes a completed content build.
type BuildResult struct {
	Posts       int
	Assets      int // total entries in the manifest, -1 when no manifest is configured
	ContentPath string
}

// buildOutput is the shape written to dist/content.json and consumed by the
// static rendering layer.
type buildOutput struct {
	GeneratedAt string                    `json:"generatedAt"`
	Posts       []notion.Post             `json:"posts"`
	Blocks      map[string][]notion.Block `json:"blocks"`
}

// Build fetches all published posts and their body blocks with image
// localization enabled, and writes the combined content snapshot to
// dist/content.json. Unlike serving, building runs on a machine with a real
// filesystem, so remote image references are replaced by cache paths.
func Build(ctx context.Context, cfg SiteConfig) (*BuildResult, error) {
	cfg.setDefaults()

	var manifest *assets.Manifest
	if cfg.ManifestPath != "" {
		m, err := assets.OpenManifest(cfg.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("notionpress: open asset manifest: %w", err)
		}
		defer m.Close()
		manifest = m
	}

	cacheOpts := []assets.Option{
		assets.WithDirs(
			filepath.Join(cfg.PublicDir, "images", "notion"),
			filepath.Join(cfg.DistDir, "images", "notion"),
		),
	}
	if manifest != nil {
		cacheOpts = append(cacheOpts, assets.WithManifest(manifest))
	}
	if cfg.MaxImageWidth > 0 {
		cacheOpts = append(cacheOpts, assets.WithMaxWidth(cfg.MaxImageWidth))
	}
	cache := assets.New(cacheOpts...)

	cms, err := notion.NewClient(notion.Env{
		Token:      cfg.NotionToken,
		DatabaseID: cfg.NotionDatabaseID,
	}, notion.WithImages(cache))
	if err != nil {
		return nil, fmt.Errorf("notionpress: init CMS client: %w", err)
	}

	posts, err := cms.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	blocks := make(map[string][]notion.Block, len(posts))
	for _, p := range posts {
		blocks[p.Slug] = cms.GetBlocks(ctx, p.ID)
	}

	retryDegradedCovers(ctx, cache, posts)

	out := buildOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Posts:       posts,
		Blocks:      blocks,
	}
	contentPath := filepath.Join(cfg.DistDir, "content.json")
	if err := writeJSON(contentPath, out); err != nil {
		return nil, fmt.Errorf("notionpress: write %s: %w", contentPath, err)
	}

	result := &BuildResult{Posts: len(posts), Assets: -1, ContentPath: contentPath}
	if manifest != nil {
		if n, err := manifest.Count(); err == nil {
			result.Assets = n
		}
	}
	return result, nil
}

// retryDegradedCovers gives cover images that degraded to a remote URL during
// parsing one more batched attempt before the snapshot is written.
func retryDegradedCovers(ctx context.Context, cache *assets.Cache, posts []notion.Post) {
	var remote []string
	for _, p := range posts {
		if p.CoverImage != nil && !strings.HasPrefix(*p.CoverImage, "/") {
			remote = append(remote, *p.CoverImage)
		}
	}
	if len(remote) == 0 {
		return
	}
	log.Printf("notionpress: retrying %d cover image download(s)", len(remote))
	resolved := cache.EnsureDownloadedBatch(ctx, remote)
	for i := range posts {
		if cover := posts[i].CoverImage; cover != nil {
			if local, ok := resolved[*cover]; ok {
				posts[i].CoverImage = &local
			}
		}
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
