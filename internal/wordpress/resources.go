package wordpress

import (
	"context"

	"content-cache-api/internal/cache"
)

// AllPosts fetches one page of published posts, newest first.
func (c *Client) AllPosts(ctx context.Context, first int, after string, policy cache.Policy) (PostsPage, error) {
	vars := map[string]any{"first": first}
	if after != "" {
		vars["after"] = after
	}
	var data postsData
	if err := c.Query(ctx, allPostsQuery, vars, policy, &data); err != nil {
		return PostsPage{}, err
	}
	return PostsPage{Posts: nonNil(data.Posts.Nodes), PageInfo: data.Posts.PageInfo}, nil
}

// PostBySlug fetches a single post with its content. A nil post means the slug does not exist.
func (c *Client) PostBySlug(ctx context.Context, slug string, policy cache.Policy) (*RawPost, error) {
	var data postData
	if err := c.Query(ctx, postBySlugQuery, map[string]any{"slug": slug}, policy, &data); err != nil {
		return nil, err
	}
	return data.Post, nil
}

// SearchPosts runs a full-text search.
func (c *Client) SearchPosts(ctx context.Context, term string, first int, policy cache.Policy) ([]RawPost, error) {
	var data postsData
	if err := c.Query(ctx, searchPostsQuery, map[string]any{"search": term, "first": first}, policy, &data); err != nil {
		return nil, err
	}
	return nonNil(data.Posts.Nodes), nil
}

// PostsByCategory lists posts filed under a category slug.
func (c *Client) PostsByCategory(ctx context.Context, category string, first int, policy cache.Policy) ([]RawPost, error) {
	var data postsData
	if err := c.Query(ctx, postsByCategoryQuery, map[string]any{"category": category, "first": first}, policy, &data); err != nil {
		return nil, err
	}
	return nonNil(data.Posts.Nodes), nil
}

// Categories fetches the non-empty category catalog.
func (c *Client) Categories(ctx context.Context, policy cache.Policy) ([]Category, error) {
	var data categoriesData
	if err := c.Query(ctx, categoriesQuery, nil, policy, &data); err != nil {
		return nil, err
	}
	if data.Categories.Nodes == nil {
		return []Category{}, nil
	}
	return data.Categories.Nodes, nil
}

// featuredScanFactor widens the recent-posts window scanned for editor-flagged posts.
const featuredScanFactor = 4

// FeaturedPosts returns up to count posts flagged as featured by editors,
// topped up with the most recent posts when too few are flagged.
func (c *Client) FeaturedPosts(ctx context.Context, count int, policy cache.Policy) ([]RawPost, error) {
	var data postsData
	vars := map[string]any{"first": count * featuredScanFactor}
	if err := c.Query(ctx, allPostsQuery, vars, policy, &data); err != nil {
		return nil, err
	}
	return PickFeatured(data.Posts.Nodes, count), nil
}

// PickFeatured keeps flagged posts first, in their original order, then the rest.
func PickFeatured(posts []RawPost, count int) []RawPost {
	out := make([]RawPost, 0, count)
	for _, p := range posts {
		if len(out) == count {
			return out
		}
		if p.PostFields != nil && p.PostFields.Featured {
			out = append(out, p)
		}
	}
	for _, p := range posts {
		if len(out) == count {
			break
		}
		if p.PostFields == nil || !p.PostFields.Featured {
			out = append(out, p)
		}
	}
	return out
}

func nonNil(posts []RawPost) []RawPost {
	if posts == nil {
		return []RawPost{}
	}
	return posts
}
