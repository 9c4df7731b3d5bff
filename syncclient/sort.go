package syncclient

// SortOption controls the order getSince's server-side results are
// returned in. The zero value ("") means omit the sort query parameter
// entirely and let the server use its own default ordering.
type SortOption string

const (
	SortNewest SortOption = "newest"
	SortOldest SortOption = "oldest"
	SortIndex  SortOption = "index"
)
