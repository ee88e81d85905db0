package fixtures

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-site/content"
	"github.com/goliatone/go-site/internal/identity"
)

type frontMatterEnvelope struct {
	ID            string    `yaml:"id" toml:"id" json:"id"`
	Title         string    `yaml:"title" toml:"title" json:"title"`
	Slug          string    `yaml:"slug" toml:"slug" json:"slug"`
	Status        string    `yaml:"status" toml:"status" json:"status"`
	Draft         bool      `yaml:"draft" toml:"draft" json:"draft"`
	Date          time.Time `yaml:"date" toml:"date" json:"date"`
	Author        string    `yaml:"author" toml:"author" json:"author"`
	Excerpt       string    `yaml:"excerpt" toml:"excerpt" json:"excerpt"`
	Tags          []string  `yaml:"tags" toml:"tags" json:"tags"`
	Categories    []string  `yaml:"categories" toml:"categories" json:"categories"`
	FeaturedImage string    `yaml:"featuredImage" toml:"featuredImage" json:"featuredImage"`
	Builder       bool      `yaml:"builder" toml:"builder" json:"builder"`
	ShowTitle     *bool     `yaml:"showTitle" toml:"showTitle" json:"showTitle"`
}

// ParseItem builds a content item from a markdown or html file with front
// matter. Missing slugs derive from the file name and missing ids from the
// kind and slug.
func ParseItem(kind content.Kind, name string, source []byte, modified time.Time) (content.Item, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return content.Item{}, fmt.Errorf("fixtures: %s: parse front matter: %w", name, err)
	}

	ext := strings.ToLower(path.Ext(name))
	format := content.FormatMarkdown
	if ext == ".html" || ext == ".htm" {
		format = content.FormatHTML
	}

	slug := strings.TrimSpace(meta.Slug)
	if slug == "" {
		slug = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	normalized, err := content.NormalizeSlug(slug)
	if err != nil || normalized == "" {
		return content.Item{}, fmt.Errorf("fixtures: %s: invalid slug %q", name, slug)
	}

	status := content.Status(strings.ToLower(strings.TrimSpace(meta.Status)))
	switch {
	case meta.Draft:
		status = content.StatusDraft
	case status == "":
		status = content.StatusPublished
	}

	created := meta.Date
	if created.IsZero() {
		created = modified
	}

	item := content.Item{
		Kind:             kind,
		ID:               strings.TrimSpace(meta.ID),
		Title:            strings.TrimSpace(meta.Title),
		Content:          strings.TrimSpace(string(body)),
		Excerpt:          strings.TrimSpace(meta.Excerpt),
		Format:           format,
		Slug:             normalized,
		Status:           status,
		FeaturedImageURL: strings.TrimSpace(meta.FeaturedImage),
		CreatedAt:        created.UTC(),
		AuthorID:         strings.TrimSpace(meta.Author),
		CategoryIDs:      meta.Categories,
		Tags:             meta.Tags,
		BuilderEnabled:   meta.Builder,
		ShowTitle:        meta.ShowTitle,
	}
	if item.ID == "" {
		item.ID = identity.FixtureID(string(kind), normalized)
	}
	if item.Title == "" {
		item.Title = fallbackTitle(normalized)
	}
	return item, nil
}

func fallbackTitle(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
