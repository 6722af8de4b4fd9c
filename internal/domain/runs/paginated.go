package runs

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Run `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Total      int64  `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
}

// Filter narrows Paginate queries. Empty fields are ignored.
type Filter struct {
	Engine string
	Plugin string
	Status string
	Image  string // substring match
}
