package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/miya025/notionpress"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		if err := runBuild(); err != nil {
			log.Fatal(err)
		}
	case "serve":
		if err := runServe(); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Printf("notionpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runBuild() error {
	cfg := notionpress.ConfigFromEnv()
	result, err := notionpress.Build(context.Background(), cfg)
	if err != nil {
		return err
	}
	log.Printf("built %d post(s) -> %s", result.Posts, result.ContentPath)
	if result.Assets >= 0 {
		log.Printf("asset cache holds %d image(s)", result.Assets)
	}
	return nil
}

func runServe() error {
	app, err := notionpress.New(notionpress.ConfigFromEnv())
	if err != nil {
		return err
	}
	return app.Start()
}

func printUsage() {
	fmt.Println(`notionpress - a Notion-backed blog content engine

Usage:
  notionpress <command>

Commands:
  build         Fetch published posts, localize images, write dist/content.json
  serve         Run the HTTP server (preview, image proxy, feed, sitemap)
  version       Print the notionpress version
  help          Show this help message

Configuration is read from the environment (see .env support):
  NOTION_TOKEN, NOTION_DATABASE_ID     required
  PREVIEW_SECRET, SESSION_SECRET       required for serve
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, SITE_AUTHOR, ADDR
  ASSET_MANIFEST_PATH, MAX_IMAGE_WIDTH, COOKIE_SECURE`)
}
