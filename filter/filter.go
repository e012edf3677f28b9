package filter

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/scipunch/geosite/config"
	"github.com/scipunch/geosite/fetcher"
)

// Pipeline applies a series of named filters to feed entries
type Pipeline struct {
	filters map[string]*compiledFilter
}

// compiledFilter contains compiled regex patterns for efficient matching
type compiledFilter struct {
	config          config.Filter
	excludePatterns []*regexp.Regexp
}

// NewPipeline creates a new filter pipeline from config
func NewPipeline(filtersConfig map[string]config.Filter) (*Pipeline, error) {
	compiled := make(map[string]*compiledFilter)

	for name, filterCfg := range filtersConfig {
		cf := &compiledFilter{
			config:          filterCfg,
			excludePatterns: make([]*regexp.Regexp, 0, len(filterCfg.ExcludePatterns)),
		}

		for _, pattern := range filterCfg.ExcludePatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				slog.Warn("invalid regex pattern in filter", "filter", name, "pattern", pattern, "error", err)
				continue
			}
			cf.excludePatterns = append(cf.excludePatterns, re)
		}

		compiled[name] = cf
	}

	return &Pipeline{filters: compiled}, nil
}

// ShouldPublish returns true if the entry passes all filters in the
// pipeline. filterNames is a list of filter names to apply in order.
func (p *Pipeline) ShouldPublish(entry fetcher.Entry, filterNames []string) (bool, string) {
	if len(filterNames) == 0 {
		return true, "" // No filters = publish everything
	}

	for _, filterName := range filterNames {
		filter, exists := p.filters[filterName]
		if !exists {
			slog.Warn("filter not found, skipping", "filter_name", filterName)
			continue
		}

		if ok, reason := p.applyFilter(entry, filter, filterName); !ok {
			return false, reason
		}
	}

	return true, ""
}

// applyFilter applies a single filter to an entry
func (p *Pipeline) applyFilter(entry fetcher.Entry, filter *compiledFilter, filterName string) (bool, string) {
	// Title and summary together are the only text the feed provides
	text := entry.Title + " " + entry.Description

	if filter.config.MinLength > 0 && len(text) < filter.config.MinLength {
		return false, filterName + ":min_length"
	}

	if filter.config.MinWords > 0 {
		if countWords(text) < filter.config.MinWords {
			return false, filterName + ":min_words"
		}
	}

	for i, pattern := range filter.excludePatterns {
		if pattern.MatchString(text) {
			return false, filterName + ":exclude_pattern[" + filter.config.ExcludePatterns[i] + "]"
		}
	}

	if filter.config.RequireParagraphs {
		if !hasMultipleParagraphs(text) {
			return false, filterName + ":require_paragraphs"
		}
	}

	return true, ""
}

// countWords counts the number of words in text
func countWords(text string) int {
	words := 0
	inWord := false

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if !inWord {
				words++
				inWord = true
			}
		} else {
			inWord = false
		}
	}

	return words
}

// hasMultipleParagraphs checks if text has multiple paragraphs
func hasMultipleParagraphs(text string) bool {
	lines := strings.Split(text, "\n")
	nonEmptyLines := 0

	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmptyLines++
		}
	}

	return nonEmptyLines >= 2
}
