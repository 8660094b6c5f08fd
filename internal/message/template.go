// internal/message/template.go
package message

import (
	"fmt"
	"os"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// knownPlaceholders are the only names a template may reference. Anything
// else is a configuration error surfaced at load time, not at send time.
var knownPlaceholders = map[string]struct{}{
	"name":          {},
	"full_name":     {},
	"cve_ids":       {},
	"pushed_at":     {},
	"created_at":    {},
	"description":   {},
	"url":           {},
	"cve_overviews": {},
}

const defaultTemplate = `## Vulnerability Repository
**Name**: {name}

**Possible CVE IDs**: {cve_ids}

**Last pushed**: {pushed_at}

**Created**: {created_at}

## Description
{description}

## CVE Overviews
{cve_overviews}

## Repository
{url}
`

// Template renders notification bodies by substituting named placeholders.
type Template struct {
	text string
}

// New validates the template text and returns a Template.
func New(text string) (*Template, error) {
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if _, ok := knownPlaceholders[m[1]]; !ok {
			return nil, fmt.Errorf("unknown placeholder %q in template", m[1])
		}
	}
	return &Template{text: text}, nil
}

// Load reads and validates the template file at path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load template from %s: %w", path, err)
	}
	return New(string(data))
}

// Default returns the built-in notification template.
func Default() *Template {
	t, err := New(defaultTemplate)
	if err != nil {
		panic(err) // the built-in template must always validate
	}
	return t
}

// Render substitutes vars into the template in a single pass. Placeholders
// without a value are left untouched.
func (t *Template) Render(vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(t.text, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})
}
