package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/rpggio/dafmemorial/internal/domain/gematria"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedTractate is one tractate entry of the seed.
type SeedTractate struct {
	Name    string
	LastDaf int
}

// SeedSeder groups the tractates of one order, in file order.
type SeedSeder struct {
	Seder     Seder
	Tractates []SeedTractate
}

// SeedData is the static {seder → {tractate → last daf}} catalog description.
// Order is preserved from the source document.
type SeedData []SeedSeder

// UnmarshalYAML decodes the nested mapping while keeping key order.
func (d *SeedData) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("seed: expected a mapping of seder to tractates, got line %d", value.Line)
	}
	var out SeedData
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		seder, err := ParseSeder(key.Value)
		if err != nil {
			return fmt.Errorf("seed line %d: %w", key.Line, err)
		}
		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("seed line %d: seder %s must map tractate names to page counts", body.Line, seder)
		}
		group := SeedSeder{Seder: seder}
		for j := 0; j+1 < len(body.Content); j += 2 {
			var last int
			if err := body.Content[j+1].Decode(&last); err != nil {
				return fmt.Errorf("seed line %d: %w", body.Content[j+1].Line, err)
			}
			group.Tractates = append(group.Tractates, SeedTractate{Name: body.Content[j].Value, LastDaf: last})
		}
		out = append(out, group)
	}
	*d = out
	return nil
}

// PageCount is the number of pages the seed produces.
func (d SeedData) PageCount() int {
	total := 0
	for _, group := range d {
		for _, t := range group.Tractates {
			if t.LastDaf >= gematria.FirstDaf {
				total += t.LastDaf - 1
			}
		}
	}
	return total
}

// Validate rejects seeds that would produce an inconsistent catalog.
func (d SeedData) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: empty seed", ErrInvalidInput)
	}
	seen := map[string]bool{}
	for _, group := range d {
		for _, t := range group.Tractates {
			if t.Name == "" {
				return fmt.Errorf("%w: tractate without a name in %s", ErrInvalidInput, group.Seder)
			}
			if seen[t.Name] {
				return fmt.Errorf("%w: tractate %q listed twice", ErrInvalidInput, t.Name)
			}
			seen[t.Name] = true
			if t.LastDaf < gematria.FirstDaf {
				return fmt.Errorf("%w: tractate %q must end at daf %d or later", ErrInvalidInput, t.Name, gematria.FirstDaf)
			}
		}
	}
	return nil
}

// ParseSeed decodes seed YAML.
func ParseSeed(data []byte) (SeedData, error) {
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return seed, nil
}

// DefaultSeed returns the embedded Babylonian Talmud catalog.
func DefaultSeed() SeedData {
	seed, err := ParseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded seed is invalid: %v", err))
	}
	return seed
}

// LoadSeed reads a seed file, falling back to the embedded catalog when path is empty.
func LoadSeed(path string) (SeedData, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// SeedResult reports what a seeding run did.
type SeedResult struct {
	Created   bool `json:"created"`
	Tractates int  `json:"tractates"`
	Pages     int  `json:"pages"`
}

// Seeder builds the catalog from seed data.
type Seeder struct {
	store  SeedStore
	logger *slog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(store SeedStore, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, logger: logger}
}

// Seed creates tractates and pages unless the store already holds exactly
// the number of pages the seed describes. A mismatch wipes and rebuilds the
// catalog in one step.
func (s *Seeder) Seed(ctx context.Context, seed SeedData) (*SeedResult, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	want := seed.PageCount()
	have, err := s.store.CountPages(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	if have == want {
		if s.logger != nil {
			s.logger.Info("catalog already seeded", "pages", have)
		}
		return &SeedResult{Created: false, Pages: have}, nil
	}
	if have > 0 && s.logger != nil {
		s.logger.Warn("catalog page count differs from seed, rebuilding", "have", have, "want", want)
	}

	tractates, pages := buildCatalog(seed)
	if err := s.store.ReplaceCatalog(ctx, tractates, pages); err != nil {
		return nil, fmt.Errorf("replacing catalog: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("catalog seeded", "tractates", len(tractates), "pages", len(pages))
	}
	return &SeedResult{Created: true, Tractates: len(tractates), Pages: len(pages)}, nil
}

func buildCatalog(seed SeedData) ([]Tractate, []Page) {
	var tractates []Tractate
	pages := make([]Page, 0, seed.PageCount())
	position := 0
	for _, group := range seed {
		for _, st := range group.Tractates {
			t := Tractate{
				ID:       uuid.NewString(),
				Name:     st.Name,
				Seder:    group.Seder,
				Position: position,
			}
			position++
			tractates = append(tractates, t)

			for i := 0; i < st.LastDaf-1; i++ {
				pages = append(pages, Page{
					ID:           uuid.NewString(),
					TractateID:   t.ID,
					TractateName: t.Name,
					Index:        i,
					Label:        gematria.DafLabel(i),
					Status:       StatusAvailable,
				})
			}
		}
	}
	return tractates, pages
}
