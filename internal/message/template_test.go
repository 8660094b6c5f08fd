// internal/message/template_test.go
package message

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("accepts known placeholders", func(t *testing.T) {
		tmpl, err := New("repo {name} at {url} ({cve_ids})")
		require.NoError(t, err)
		assert.NotNil(t, tmpl)
	})

	t.Run("rejects unknown placeholders at load time", func(t *testing.T) {
		_, err := New("hello {nope}")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("accepts text without placeholders", func(t *testing.T) {
		_, err := New("static notification body")
		require.NoError(t, err)
	})
}

func TestRender(t *testing.T) {
	tmpl, err := New("{name}: {description} -> {url}")
	require.NoError(t, err)

	got := tmpl.Render(map[string]string{
		"name":        "poc-repo",
		"description": "PoC for CVE-2024-12345",
		"url":         "https://github.com/a/poc-repo",
	})
	assert.Equal(t, "poc-repo: PoC for CVE-2024-12345 -> https://github.com/a/poc-repo", got)
}

func TestRender_MissingValueLeftUntouched(t *testing.T) {
	tmpl, err := New("{name} {cve_overviews}")
	require.NoError(t, err)

	got := tmpl.Render(map[string]string{"name": "poc-repo"})
	assert.Equal(t, "poc-repo {cve_overviews}", got)
}

func TestLoad(t *testing.T) {
	t.Run("loads a template file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tmpl.md")
		require.NoError(t, os.WriteFile(path, []byte("repo {name}"), 0o644))

		tmpl, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "repo x", tmpl.Render(map[string]string{"name": "x"}))
	})

	t.Run("errors on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.md"))
		require.Error(t, err)
	})

	t.Run("errors on an invalid placeholder", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tmpl.md")
		require.NoError(t, os.WriteFile(path, []byte("repo {bogus_field}"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	tmpl := Default()
	body := tmpl.Render(map[string]string{
		"name":          "poc-repo",
		"cve_ids":       "CVE-2024-12345",
		"pushed_at":     "2024-05-01T10:00:00Z",
		"created_at":    "2024-04-01T10:00:00Z",
		"description":   "a description",
		"url":           "https://github.com/a/poc-repo",
		"cve_overviews": "an overview",
	})
	assert.Contains(t, body, "poc-repo")
	assert.Contains(t, body, "CVE-2024-12345")
	assert.Contains(t, body, "an overview")
	assert.NotContains(t, body, "{name}")
}
