// internal/blacklist/blacklist.go
package blacklist

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github-cve-monitor/internal/model"
)

// Blacklist holds the exclusion rules loaded from the JSON configuration file.
type Blacklist struct {
	RepoIDs   []int64  `json:"repo_ids"`
	FullNames []string `json:"full_names"`
	URLs      []string `json:"urls"`
}

// Load reads the blacklist document from path. Any failure fails open: the
// error is logged and an empty blacklist is returned so the pipeline keeps
// running with nothing excluded.
func Load(path string, logger *slog.Logger) *Blacklist {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to load blacklist, continuing with empty lists", "path", path, "error", err)
		return &Blacklist{}
	}

	var b Blacklist
	if err := json.Unmarshal(data, &b); err != nil {
		logger.Error("Failed to parse blacklist, continuing with empty lists", "path", path, "error", err)
		return &Blacklist{}
	}
	return &b
}

// Matches reports whether repo is excluded by any rule. Rules are checked by
// numeric id, case-insensitive full name, and URL (exact or substring match,
// trailing slashes stripped).
func (b *Blacklist) Matches(repo model.Repository) bool {
	for _, id := range b.RepoIDs {
		if id == repo.ID {
			return true
		}
	}

	if repo.FullName != "" {
		for _, name := range b.FullNames {
			if strings.EqualFold(name, repo.FullName) {
				return true
			}
		}
	}

	repoURL := strings.TrimRight(strings.ToLower(repo.URL), "/")
	if repoURL != "" {
		for _, u := range b.URLs {
			blocked := strings.TrimRight(strings.ToLower(u), "/")
			if blocked == "" {
				continue
			}
			if repoURL == blocked || strings.Contains(repoURL, blocked) {
				return true
			}
		}
	}

	return false
}
