package wordpress

const postFieldsFragment = `
fragment PostCard on Post {
  id
  databaseId
  title
  slug
  date
  excerpt
  featuredImage { node { sourceUrl altText } }
  categories { edges { node { id name slug } } }
  author { node { name } }
  postFields { readTime featured subtitle }
}`

const allPostsQuery = `
query AllPosts($first: Int!, $after: String) {
  posts(first: $first, after: $after, where: { status: PUBLISH, orderby: { field: DATE, order: DESC } }) {
    pageInfo { hasNextPage endCursor }
    nodes { ...PostCard }
  }
}` + postFieldsFragment

const postBySlugQuery = `
query PostBySlug($slug: ID!) {
  post(id: $slug, idType: SLUG) {
    ...PostCard
    content
  }
}` + postFieldsFragment

const searchPostsQuery = `
query SearchPosts($search: String!, $first: Int!) {
  posts(first: $first, where: { search: $search, status: PUBLISH }) {
    pageInfo { hasNextPage endCursor }
    nodes { ...PostCard }
  }
}` + postFieldsFragment

const postsByCategoryQuery = `
query PostsByCategory($category: String!, $first: Int!) {
  posts(first: $first, where: { categoryName: $category, status: PUBLISH, orderby: { field: DATE, order: DESC } }) {
    pageInfo { hasNextPage endCursor }
    nodes { ...PostCard }
  }
}` + postFieldsFragment

const categoriesQuery = `
query Categories {
  categories(first: 100, where: { hideEmpty: true }) {
    nodes { id name slug description count }
  }
}`
