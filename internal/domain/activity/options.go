package activity

// DefaultListLimit is the number of entries returned when no limit is given.
const DefaultListLimit = 50

// ListOptions filters log listing.
type ListOptions struct {
	Limit         int
	IncludeHidden bool
}
