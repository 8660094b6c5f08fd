// internal/model/models.go
package model

import "time"

// Status is the classification assigned to a repository at its most recent write.
type Status string

const (
	StatusNew     Status = "new"
	StatusUpdated Status = "updated"
)

// Repository represents a GitHub repository that matched the vulnerability search.
// Timestamps are kept as the upstream RFC3339 strings; fixed-width ISO-8601
// makes lexicographic comparison equivalent to chronological comparison.
type Repository struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PushedAt    string   `json:"pushed_at"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	CVEIDs      []string `json:"cve_ids"`
	Status      Status   `json:"status"`
}

// CheckRecord is one entry in the append-only poll audit log.
type CheckRecord struct {
	ID         int64     `json:"id"`
	CheckTime  time.Time `json:"check_time"`
	TotalCount int       `json:"total_count"`
}

// SearchResult is one page of candidate repositories from the search API.
type SearchResult struct {
	TotalCount int
	Items      []Repository
}
