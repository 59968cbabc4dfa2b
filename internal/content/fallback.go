package content

import (
	"strconv"
	"strings"

	"content-cache-api/internal/wordpress"
)

// Static content served when the content API cannot be reached and nothing is cached.
// Never mutated; accessors hand out deep copies.

var fallbackCategories = []wordpress.Category{
	{ID: "fallback-cat-1", Name: "Habit Formation", Slug: "habit-formation", Description: "The science of building habits that last.", Count: 2},
	{ID: "fallback-cat-2", Name: "Productivity", Slug: "productivity", Description: "Doing more of what matters.", Count: 2},
	{ID: "fallback-cat-3", Name: "Mindset", Slug: "mindset", Description: "Identity, motivation and self-talk.", Count: 1},
	{ID: "fallback-cat-4", Name: "Wellness", Slug: "wellness", Description: "Sleep, movement and recovery.", Count: 1},
}

func fallbackCategory(slug string) wordpress.CategoryConnection {
	for _, c := range fallbackCategories {
		if c.Slug == slug {
			return wordpress.CategoryConnection{Edges: []wordpress.CategoryEdge{{Node: wordpress.Category{ID: c.ID, Name: c.Name, Slug: c.Slug}}}}
		}
	}
	return wordpress.CategoryConnection{}
}

var fallbackPosts = []wordpress.RawPost{
	{
		ID:         "fallback-1",
		Title:      "The 2-Minute Rule: Starting Habits That Actually Stick",
		Slug:       "two-minute-rule",
		Date:       "2025-01-15T09:00:00",
		Excerpt:    "<p>Scale any new habit down until it takes less than two minutes, then let momentum do the rest.</p>",
		Content:    "<p>Every habit starts small. When a new behaviour takes less than two minutes, the hardest part of the day becomes simply showing up. Once showing up is automatic, you can grow the habit one step at a time.</p>",
		Categories: fallbackCategory("habit-formation"),
		PostFields: &wordpress.PostFields{ReadTime: "4 min read", Featured: true},
	},
	{
		ID:         "fallback-2",
		Title:      "Habit Stacking: Anchor New Routines to Old Ones",
		Slug:       "habit-stacking",
		Date:       "2025-01-08T09:00:00",
		Excerpt:    "<p>Pair the habit you want with one you already do every day.</p>",
		Content:    "<p>After I pour my morning coffee, I will write one sentence in my journal. Linking a new behaviour to an existing cue removes the need to remember it.</p>",
		Categories: fallbackCategory("habit-formation"),
		PostFields: &wordpress.PostFields{ReadTime: "5 min read", Featured: true},
	},
	{
		ID:         "fallback-3",
		Title:      "Deep Work Blocks for People Who Can&#8217;t Focus",
		Slug:       "deep-work-blocks",
		Date:       "2024-12-18T09:00:00",
		Excerpt:    "<p>Protect ninety minutes a day and watch your output change.</p>",
		Content:    "<p>Focus is a skill. Block a fixed window, silence notifications and decide in advance what the block is for.</p>",
		Categories: fallbackCategory("productivity"),
		PostFields: &wordpress.PostFields{ReadTime: "6 min read", Featured: true},
	},
	{
		ID:         "fallback-4",
		Title:      "Identity-Based Habits: Become the Person First",
		Slug:       "identity-based-habits",
		Date:       "2024-12-02T09:00:00",
		Excerpt:    "<p>Lasting change starts with who you believe you are.</p>",
		Content:    "<p>Each small action is a vote for the type of person you want to become. Collect enough votes and the identity follows.</p>",
		Categories: fallbackCategory("mindset"),
		PostFields: &wordpress.PostFields{ReadTime: "5 min read"},
	},
	{
		ID:         "fallback-5",
		Title:      "The Weekly Review &#8211; A 20-Minute Reset",
		Slug:       "weekly-review",
		Date:       "2024-11-20T09:00:00",
		Excerpt:    "<p>Close open loops, plan the week and start Monday calm.</p>",
		Content:    "<p>Once a week, look back at what happened, clear your inboxes and choose the three outcomes that matter most for the week ahead.</p>",
		Categories: fallbackCategory("productivity"),
		PostFields: &wordpress.PostFields{ReadTime: "3 min read"},
	},
	{
		ID:         "fallback-6",
		Title:      "Sleep Is the Habit That Powers Every Other Habit",
		Slug:       "sleep-first",
		Date:       "2024-11-05T09:00:00",
		Excerpt:    "<p>A consistent bedtime makes willpower cheaper the next day.</p>",
		Content:    "<p>Tired brains default to easy choices. Protecting a regular sleep window is the simplest way to make every other routine easier.</p>",
		Categories: fallbackCategory("wellness"),
		PostFields: &wordpress.PostFields{ReadTime: "4 min read"},
	},
}

const fallbackCursorPrefix = "fallback:"

// fallbackPostsPage pages through the static posts with synthetic cursors.
// A cursor issued by the real API cannot be mapped, so it yields an empty final page.
func fallbackPostsPage(first int, after string) wordpress.PostsPage {
	offset := 0
	if after != "" {
		n, ok := parseFallbackCursor(after)
		if !ok {
			return wordpress.PostsPage{Posts: []wordpress.RawPost{}}
		}
		offset = n
	}
	if offset > len(fallbackPosts) {
		offset = len(fallbackPosts)
	}
	end := offset + first
	if end > len(fallbackPosts) {
		end = len(fallbackPosts)
	}

	page := wordpress.PostsPage{Posts: clonePosts(fallbackPosts[offset:end])}
	if end < len(fallbackPosts) {
		page.PageInfo = wordpress.PageInfo{HasNextPage: true, EndCursor: fallbackCursorPrefix + strconv.Itoa(end)}
	}
	return page
}

func parseFallbackCursor(cursor string) (int, bool) {
	rest, ok := strings.CutPrefix(cursor, fallbackCursorPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func fallbackPostBySlug(slug string) (*wordpress.RawPost, bool) {
	for _, p := range fallbackPosts {
		if p.Slug == slug {
			c := clonePost(p)
			return &c, true
		}
	}
	return nil, false
}

// fallbackSearch matches the term against titles and excerpts, case-insensitively.
// With no match it returns the leading static posts so the page is never blank.
func fallbackSearch(term string, first int) []wordpress.RawPost {
	needle := strings.ToLower(term)
	out := []wordpress.RawPost{}
	for _, p := range fallbackPosts {
		if len(out) == first {
			break
		}
		if strings.Contains(strings.ToLower(p.Title), needle) || strings.Contains(strings.ToLower(p.Excerpt), needle) {
			out = append(out, clonePost(p))
		}
	}
	return orLeading(out, first)
}

func fallbackByCategory(slug string, first int) []wordpress.RawPost {
	out := []wordpress.RawPost{}
	for _, p := range fallbackPosts {
		if len(out) == first {
			break
		}
		if len(p.Categories.Edges) > 0 && p.Categories.Edges[0].Node.Slug == slug {
			out = append(out, clonePost(p))
		}
	}
	return orLeading(out, first)
}

func orLeading(matched []wordpress.RawPost, first int) []wordpress.RawPost {
	if len(matched) > 0 {
		return matched
	}
	return clonePosts(fallbackPosts[:min(first, len(fallbackPosts))])
}

func fallbackFeatured(count int) []wordpress.RawPost {
	return clonePosts(wordpress.PickFeatured(fallbackPosts, count))
}

func fallbackCategoryList() []wordpress.Category {
	return append([]wordpress.Category(nil), fallbackCategories...)
}

func clonePosts(posts []wordpress.RawPost) []wordpress.RawPost {
	out := make([]wordpress.RawPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, clonePost(p))
	}
	return out
}

func clonePost(p wordpress.RawPost) wordpress.RawPost {
	if p.FeaturedImage != nil {
		img := *p.FeaturedImage
		p.FeaturedImage = &img
	}
	if p.PostFields != nil {
		fields := *p.PostFields
		p.PostFields = &fields
	}
	if p.Author != nil {
		author := *p.Author
		p.Author = &author
	}
	p.Categories.Edges = append([]wordpress.CategoryEdge(nil), p.Categories.Edges...)
	return p
}
