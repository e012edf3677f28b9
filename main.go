package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/scipunch/geosite/cache"
	"github.com/scipunch/geosite/config"
	"github.com/scipunch/geosite/fetcher"
	"github.com/scipunch/geosite/filter"
	"github.com/scipunch/geosite/index"
	"github.com/scipunch/geosite/page"
)

func main() {
	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var cfgPath string
	var feedURL string
	var cleanCache bool
	flag.StringVar(&cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.StringVar(&feedURL, "feed", "", "override the configured feed URL")
	flag.BoolVar(&cleanCache, "clean", false, "remove all cached feed bodies")
	flag.Parse()

	// Read config and create if default is missing
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			log.Fatalf("failed to write default config with %s", err)
		}
	} else if err != nil {
		log.Fatalf("failed to read config with %s", err)
	}
	if feedURL != "" {
		conf.FeedURL = feedURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the fetch cache when configured
	var fetch fetcher.FeedFetcher = fetcher.NewRSS()
	if conf.CachePath != "" || cleanCache {
		cachePath := conf.CachePath
		if cachePath == "" {
			cachePath = config.DefaultCachePath()
		}
		feedCache, err := cache.New(cachePath)
		if err != nil {
			log.Fatalf("failed to initialize feed cache with %s", err)
		}
		defer feedCache.Close()

		// Handle -clean flag
		if cleanCache {
			if err := feedCache.Clear(); err != nil {
				log.Fatalf("failed to clear cache with %s", err)
			}
			slog.Info("cache cleared successfully")
			return
		}

		if stats, err := feedCache.Stats(); err != nil {
			slog.Warn("failed to get cache stats", "error", err)
		} else {
			slog.Info("cache initialized", "entries", stats.Entries)
		}

		fetch = fetcher.NewCachedRSS(feedCache, conf.TTL())
	}

	// Initialize filter pipeline
	pipeline, err := filter.NewPipeline(conf.Filters)
	if err != nil {
		log.Fatalf("failed to initialize filters with %s", err)
	}
	if len(conf.Filters) > 0 {
		slog.Info("initialized filters", "count", len(conf.Filters))
	}

	feed, err := fetch.Fetch(ctx, conf.FeedURL)
	if err != nil {
		log.Fatalf("'%s' fetch failed with %s", conf.FeedURL, err)
	}
	slog.Info("feed fetched", "title", feed.Title, "entries", len(feed.Entries))

	entry, ok := feed.Latest()
	if !ok {
		fmt.Println("no entries found in the feed")
		return
	}
	if entry.Title == "" {
		entry.Title = conf.DefaultTitle
	}

	if ok, reason := pipeline.ShouldPublish(entry, conf.FilterNames); !ok {
		slog.Info("latest entry filtered out, nothing to publish",
			"title", entry.Title, "reason", reason, "url", entry.Link)
		return
	}

	filename := page.Filename(time.Now(), entry.Title)
	pagePath := filepath.Join(conf.SiteDir, conf.NewsDir, filename)
	if err := page.Render(entry, pagePath); err != nil {
		log.Fatalf("failed to render article page with %s", err)
	}
	slog.Info("article page generated", "path", pagePath)

	indexPath := filepath.Join(conf.SiteDir, conf.IndexFile)
	if err := index.Update(indexPath, conf.NewsDir, filename, entry.Title); err != nil {
		log.Fatalf("failed to update index with %s", err)
	}

	if conf.PDFOutput != "" {
		if err := exportPDF(pagePath, conf.PDFOutput); err != nil {
			slog.Error("failed to export PDF", "error", err)
		} else {
			slog.Info("PDF exported", "path", conf.PDFOutput)
		}
	}

	fmt.Printf("article added: %s\n", filename)
}

// exportPDF prints the generated article page to a PDF file
func exportPDF(htmlPath, pdfPath string) error {
	if err := playwright.Install(); err != nil {
		return fmt.Errorf("could not install playwright: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch()
	if err != nil {
		return fmt.Errorf("could not launch browser: %w", err)
	}
	defer browser.Close()

	tab, err := browser.NewPage()
	if err != nil {
		return fmt.Errorf("could not create page: %w", err)
	}
	defer tab.Close()

	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("could not get absolute path: %w", err)
	}
	if _, err = tab.Goto("file://" + absPath); err != nil {
		return fmt.Errorf("could not open article page: %w", err)
	}

	_, err = tab.PDF(playwright.PagePdfOptions{
		Path:            playwright.String(pdfPath),
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("20mm"),
			Right:  playwright.String("18mm"),
			Bottom: playwright.String("20mm"),
			Left:   playwright.String("18mm"),
		},
	})
	if err != nil {
		return fmt.Errorf("could not generate PDF: %w", err)
	}

	return nil
}
