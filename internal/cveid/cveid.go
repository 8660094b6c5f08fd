// internal/cveid/cveid.go
package cveid

import (
	"regexp"
	"sort"
	"strings"
)

var pattern = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)

// Extract scans free text for CVE identifiers and returns them uppercased,
// deduplicated and sorted. It never fails; empty or absent text yields nil.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	matches := pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.ToUpper(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
