package wordpress

// RawPost is a post as the GraphQL endpoint returns it: entity-encoded
// title, raw excerpt/content HTML, nested category edges and ACF fields.
type RawPost struct {
	ID            string             `json:"id"`
	DatabaseID    int                `json:"databaseId,omitempty"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Date          string             `json:"date"`
	Excerpt       string             `json:"excerpt"`
	Content       string             `json:"content,omitempty"`
	FeaturedImage *FeaturedImage     `json:"featuredImage,omitempty"`
	Categories    CategoryConnection `json:"categories"`
	Author        *AuthorEdge        `json:"author,omitempty"`
	PostFields    *PostFields        `json:"postFields,omitempty"`
}

// FeaturedImage wraps the media node of a post's featured image.
type FeaturedImage struct {
	Node ImageNode `json:"node"`
}

type ImageNode struct {
	SourceURL string `json:"sourceUrl"`
	AltText   string `json:"altText"`
}

type AuthorEdge struct {
	Node struct {
		Name string `json:"name"`
	} `json:"node"`
}

// PostFields are the ACF custom fields editors fill in per post.
type PostFields struct {
	ReadTime string `json:"readTime"`
	Featured bool   `json:"featured"`
	Subtitle string `json:"subtitle,omitempty"`
}

type CategoryConnection struct {
	Edges []CategoryEdge `json:"edges"`
}

type CategoryEdge struct {
	Node Category `json:"node"`
}

// Category is one entry of the category catalog.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count"`
}

// PageInfo carries the continuation cursor of a paginated listing.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// PostsPage is one page of the all-posts listing.
type PostsPage struct {
	Posts    []RawPost `json:"posts"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// response shapes of the individual query documents

type postsConnection struct {
	PageInfo PageInfo  `json:"pageInfo"`
	Nodes    []RawPost `json:"nodes"`
}

type postsData struct {
	Posts postsConnection `json:"posts"`
}

type postData struct {
	Post *RawPost `json:"post"`
}

type categoriesData struct {
	Categories struct {
		Nodes []Category `json:"nodes"`
	} `json:"categories"`
}
