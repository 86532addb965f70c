package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Seder is one of the six orders grouping the tractates.
type Seder string

const (
	SederZraim   Seder = "Zraim"
	SederMoed    Seder = "Moed"
	SederNashim  Seder = "Nashim"
	SederNezikin Seder = "Nezikin"
	SederKodshim Seder = "Kodshim"
	SederTaharot Seder = "Taharot"
)

// Seders lists the orders in canonical sequence.
var Seders = []Seder{SederZraim, SederMoed, SederNashim, SederNezikin, SederKodshim, SederTaharot}

var hebrewSederNames = map[Seder]string{
	SederZraim:   "זרעים",
	SederMoed:    "מועד",
	SederNashim:  "נשים",
	SederNezikin: "נזיקין",
	SederKodshim: "קדשים",
	SederTaharot: "טהרות",
}

// HebrewName returns the display name of the seder.
func (s Seder) HebrewName() string {
	return hebrewSederNames[s]
}

// Valid reports whether s is one of the six known orders.
func (s Seder) Valid() bool {
	_, ok := hebrewSederNames[s]
	return ok
}

// ParseSeder accepts either the transliterated or the Hebrew name.
func ParseSeder(name string) (Seder, error) {
	name = strings.TrimSpace(name)
	for _, s := range Seders {
		if strings.EqualFold(string(s), name) || s.HebrewName() == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown seder %q", ErrInvalidInput, name)
}

// Tractate is a named subdivision of the corpus. Immutable after seeding.
type Tractate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Seder    Seder  `json:"seder"`
	Position int    `json:"position"`
}

// PageStatus is the lifecycle state of a page
type PageStatus string

const (
	StatusAvailable PageStatus = "available"
	// StatusDrafted is only reachable when drafting mode is enabled.
	StatusDrafted   PageStatus = "drafted"
	StatusTaken     PageStatus = "taken"
	StatusCompleted PageStatus = "completed"
)

// Valid reports whether s is a known status.
func (s PageStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusDrafted, StatusTaken, StatusCompleted:
		return true
	}
	return false
}

// Page is a single daf. Only Status and the claim fields ever change.
type Page struct {
	ID            string     `json:"id"`
	TractateID    string     `json:"tractate_id"`
	TractateName  string     `json:"tractate_name,omitempty"`
	Index         int        `json:"index"`
	Label         string     `json:"label"`
	Status        PageStatus `json:"status"`
	ClaimedBy     *string    `json:"claimed_by,omitempty"`
	ClaimedByName *string    `json:"claimed_by_name,omitempty"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
}

// ClaimedByUser reports whether userID currently holds the page.
func (p *Page) ClaimedByUser(userID string) bool {
	return p.ClaimedBy != nil && *p.ClaimedBy == userID
}

// StatusCounts holds page counts per status.
type StatusCounts struct {
	Available int `json:"available"`
	Drafted   int `json:"drafted,omitempty"`
	Taken     int `json:"taken"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// TractateSummary is a tractate with its page counts, for listing
type TractateSummary struct {
	Tractate
	Counts StatusCounts `json:"counts"`
}

// UserProgress summarises the pages held by one user.
type UserProgress struct {
	UserID     string  `json:"user_id"`
	Pages      []Page  `json:"pages"`
	InProgress int     `json:"in_progress"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
}
