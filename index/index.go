// Package index patches the site index with links to new article pages.
package index

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SectionID identifies the latest-articles section of the site index
const SectionID = "derniers-articles"

const sectionHeading = "Derniers articles"

// Update prepends a link to the article page inside the
// #derniers-articles section of the index, creating the section inside
// <main> (or <body>) when the index does not have one yet. Newer
// articles stay first in the list. A missing index file is a no-op:
// the site may not have been scaffolded yet.
func Update(indexPath, newsDir, filename, title string) error {
	blob, err := os.ReadFile(indexPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("index file missing, skipping index update", "path", indexPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index at '%s' with %w", indexPath, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(blob)))
	if err != nil {
		return fmt.Errorf("failed to parse index at '%s' with %w", indexPath, err)
	}

	li := fmt.Sprintf(`<li><a href="%s">%s</a></li>`,
		path.Join(newsDir, filename), html.EscapeString(title))

	section := doc.Find("section#" + SectionID)
	if section.Length() > 0 {
		ul := section.Find("ul").First()
		if ul.Length() > 0 {
			ul.PrependHtml(li)
		} else {
			section.First().AppendHtml("<ul>" + li + "</ul>")
		}
	} else {
		sectionHTML := fmt.Sprintf(`<section id="%s"><h2>%s</h2><ul>%s</ul></section>`,
			SectionID, sectionHeading, li)
		if m := doc.Find("main").First(); m.Length() > 0 {
			m.AppendHtml(sectionHTML)
		} else {
			doc.Find("body").AppendHtml(sectionHTML)
		}
	}

	rendered, err := doc.Html()
	if err != nil {
		return fmt.Errorf("failed to serialize index with %w", err)
	}
	if err := os.WriteFile(indexPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write index at '%s' with %w", indexPath, err)
	}

	slog.Debug("index updated", "path", indexPath, "article", filename)
	return nil
}
