package activity

import (
	"fmt"
	"time"
)

// LogEntry is one line of the public activity feed.
type LogEntry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Visible   bool      `json:"visible"`
}

// ClaimEvent describes a committed claim whose claimant changed.
type ClaimEvent struct {
	PageID       string
	UserName     string
	PageLabel    string
	TractateName string
}

// Message renders the feed sentence for the claim.
func (e ClaimEvent) Message() string {
	return fmt.Sprintf("%s took on the study of page %s of tractate %s!", e.UserName, e.PageLabel, e.TractateName)
}
