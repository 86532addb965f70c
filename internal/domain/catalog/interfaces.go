package catalog

import "context"

// TractateRepository provides read access to tractates.
type TractateRepository interface {
	List(ctx context.Context) ([]Tractate, error)
	Get(ctx context.Context, id string) (*Tractate, error)
	ListSummaries(ctx context.Context) ([]TractateSummary, error)
}

// PageRepository provides read access to pages.
type PageRepository interface {
	Get(ctx context.Context, id string) (*Page, error)
	List(ctx context.Context, opts ListPagesOptions) ([]Page, error)
}

// SeedStore persists a freshly built catalog.
type SeedStore interface {
	CountPages(ctx context.Context, status *PageStatus) (int, error)
	ReplaceCatalog(ctx context.Context, tractates []Tractate, pages []Page) error
}
