package catalog

// ListPagesOptions provides filtering options for listing pages.
type ListPagesOptions struct {
	TractateID string
	Statuses   []PageStatus
	ClaimedBy  *string
	Limit      int
	Offset     int
}
