// Package page renders a feed entry into a static article page.
package page

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/scipunch/geosite/fetcher"
)

//go:embed article.html
var articleHTML string

var articleTmpl = template.Must(template.New("article").Parse(articleHTML))

// maxSlugLen bounds the title part of generated file names
const maxSlugLen = 50

type articleData struct {
	Title     string
	Published string
	// The feed's summary is HTML already; it is inserted as-is so
	// provider markup (paragraphs, emphasis) survives.
	Description template.HTML
	Link        string
}

// Filename builds the page file name for an entry: the run date
// followed by a slug of the title, e.g. 2026-08-26-sanctions-update.html
func Filename(date time.Time, title string) string {
	return fmt.Sprintf("%s-%s.html", date.Format("2006-01-02"), slugify(title))
}

func slugify(title string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(title) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			if b.Len()+1+utf8.RuneLen(r) > maxSlugLen {
				break
			}
			b.WriteByte('-')
			pendingDash = false
		} else if b.Len()+utf8.RuneLen(r) > maxSlugLen {
			break
		}
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return "article"
	}
	return b.String()
}

// Render writes the HTML page for the entry to path, creating the
// parent directory when needed
func Render(entry fetcher.Entry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create news directory at '%s' with %w", filepath.Dir(path), err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create article page at '%s' with %w", path, err)
	}
	defer out.Close()

	data := articleData{
		Title:       entry.Title,
		Published:   entry.Published,
		Description: template.HTML(entry.Description),
		Link:        entry.Link,
	}
	if err := articleTmpl.Execute(out, data); err != nil {
		return fmt.Errorf("failed to render article page with %w", err)
	}

	return nil
}
