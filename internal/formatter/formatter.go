// Package formatter turns upstream posts into display-ready records.
// Everything here is pure: no I/O, no shared state.
package formatter

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"content-cache-api/internal/wordpress"
)

const (
	// DefaultImageURL is shown for posts without a featured image.
	DefaultImageURL = "/images/blog/default-post.jpg"

	wordsPerMinute = 200
	invalidDate    = "Invalid Date"
	displayLayout  = "Jan 2, 2006"
)

// FormattedPost is the display shape of a post. It is never cached.
type FormattedPost struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content,omitempty"`
	Category     string `json:"category"`
	CategorySlug string `json:"categorySlug"`
	ReadTime     string `json:"readTime"`
	Date         string `json:"date"`
	Author       string `json:"author,omitempty"`
	ImageURL     string `json:"imageUrl"`
	ImageAlt     string `json:"imageAlt"`
	Featured     bool   `json:"featured"`
}

// Format converts a raw post. Malformed fields get defaults, never errors.
func Format(raw wordpress.RawPost) FormattedPost {
	title := DecodeEntities(raw.Title)

	category, categorySlug := "Uncategorized", "uncategorized"
	if len(raw.Categories.Edges) > 0 {
		node := raw.Categories.Edges[0].Node
		if name := strings.TrimSpace(node.Name); name != "" {
			category = DecodeEntities(name)
		}
		if slug := strings.TrimSpace(node.Slug); slug != "" {
			categorySlug = slug
		}
	}

	imageURL, imageAlt := DefaultImageURL, title
	if raw.FeaturedImage != nil {
		if src := strings.TrimSpace(raw.FeaturedImage.Node.SourceURL); src != "" {
			imageURL = src
		}
		if alt := strings.TrimSpace(raw.FeaturedImage.Node.AltText); alt != "" {
			imageAlt = DecodeEntities(alt)
		}
	}

	var editorReadTime, subtitle string
	var featured bool
	if raw.PostFields != nil {
		editorReadTime = raw.PostFields.ReadTime
		subtitle = DecodeEntities(raw.PostFields.Subtitle)
		featured = raw.PostFields.Featured
	}

	var author string
	if raw.Author != nil {
		author = raw.Author.Node.Name
	}

	content := ""
	if raw.Content != "" {
		content = DecodeTypography(raw.Content)
	}

	return FormattedPost{
		ID:           raw.ID,
		Slug:         raw.Slug,
		Title:        title,
		Subtitle:     subtitle,
		Excerpt:      CleanExcerpt(raw.Excerpt),
		Content:      content,
		Category:     category,
		CategorySlug: categorySlug,
		ReadTime:     ReadTime(editorReadTime, raw.Content, raw.Excerpt),
		Date:         FormatDate(raw.Date),
		Author:       author,
		ImageURL:     imageURL,
		ImageAlt:     imageAlt,
		Featured:     featured,
	}
}

// FormatAll formats every post, preserving order.
func FormatAll(posts []wordpress.RawPost) []FormattedPost {
	out := make([]FormattedPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, Format(p))
	}
	return out
}

// typographicPairs map the entities WordPress emits for punctuation onto plain ASCII.
// They are safe to apply to markup.
var typographicPairs = []string{
	"&#8217;", "'",
	"&#8216;", "'",
	"&rsquo;", "'",
	"&lsquo;", "'",
	"&#8220;", `"`,
	"&#8221;", `"`,
	"&ldquo;", `"`,
	"&rdquo;", `"`,
	"&#8211;", "-",
	"&ndash;", "-",
	"&#8212;", "--",
	"&mdash;", "--",
	"&#8230;", "...",
	"&hellip;", "...",
}

var (
	typographyTable = strings.NewReplacer(typographicPairs...)
	// entityTable adds the markup-significant entities; anything not listed
	// falls through to html.UnescapeString.
	entityTable = strings.NewReplacer(append([]string{
		"&#039;", "'",
		"&#39;", "'",
		"&apos;", "'",
		"&#034;", `"`,
		"&quot;", `"`,
		"&#038;", "&",
		"&amp;", "&",
		"&nbsp;", " ",
		"&#160;", " ",
	}, typographicPairs...)...)
)

// DecodeEntities replaces HTML entities with their text. Use it on plain-text fields only.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(entityTable.Replace(s))
}

// DecodeTypography replaces only punctuation entities, leaving escaped markup
// such as "&lt;script&gt;" intact. It is meant for HTML bodies.
func DecodeTypography(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return typographyTable.Replace(s)
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	spacePattern      = regexp.MustCompile(`\s+`)
	readMorePattern   = regexp.MustCompile(`\s*\[(\.\.\.|…)\]\s*$`)
	leadingDigitsOnly = regexp.MustCompile(`^\d+$`)
)

// StripTags removes markup and collapses whitespace.
func StripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// CleanExcerpt strips markup, decodes entities and drops the trailing "[...]" marker.
func CleanExcerpt(raw string) string {
	text := DecodeEntities(StripTags(raw))
	text = readMorePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// ReadTime prefers the editor value; otherwise it estimates from content, then excerpt.
func ReadTime(editorValue, content, excerpt string) string {
	if v := strings.TrimSpace(editorValue); v != "" {
		if leadingDigitsOnly.MatchString(v) {
			n, err := strconv.Atoi(v)
			if err == nil {
				return minutesLabel(n)
			}
		}
		return v
	}

	body := content
	if strings.TrimSpace(StripTags(body)) == "" {
		body = excerpt
	}
	words := len(strings.Fields(DecodeEntities(StripTags(body))))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return minutesLabel(minutes)
}

func minutesLabel(n int) string {
	if n <= 1 {
		return "1 min read"
	}
	return strconv.Itoa(n) + " min read"
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a WordPress date as "Jan 2, 2006", or "Invalid Date".
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(displayLayout)
		}
	}
	return invalidDate
}
