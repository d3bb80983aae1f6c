package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Translate.BatchSize)
	assert.True(t, cfg.Translate.IncludeHeaders)
	assert.True(t, cfg.Translate.IncludeFootnotes)
	assert.False(t, cfg.Translate.IncludeComments)
	assert.Equal(t, 1, cfg.Translate.Concurrency)
	assert.Equal(t, "raw", cfg.Translate.Provider)
	assert.Equal(t, "Chat Export", cfg.Export.Header)
	assert.Equal(t, 3, cfg.Providers.DeepL.MaxRetries)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAI.Model)
	assert.Equal(t, path, cfg.File)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatdoc.yaml")
	content := `
debug: true
export:
  author: Ada
  page_size: letter
translate:
  provider: deepl
  batch_size: 20
  include_comments: true
  target_lang: fr
  formality: less
  extra:
    glossary_id: abc
providers:
  deepl:
    api_key: secret
    timeout: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "Ada", cfg.Export.Author)
	assert.Equal(t, "letter", cfg.Export.PageSize)
	assert.Equal(t, "deepl", cfg.Translate.Provider)
	assert.Equal(t, 20, cfg.Translate.BatchSize)
	assert.True(t, cfg.Translate.IncludeComments)
	assert.True(t, cfg.Translate.IncludeHeaders)
	assert.Equal(t, "fr", cfg.Translate.TargetLang)
	assert.Equal(t, "less", cfg.Translate.Formality)
	assert.Equal(t, "abc", cfg.Translate.Extra["glossary_id"])
	assert.Equal(t, "secret", cfg.Providers.DeepL.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Providers.DeepL.Timeout)
}

func TestLoadConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	t.Setenv("CHATDOC_TRANSLATE_BATCH_SIZE", "7")
	t.Setenv("CHATDOC_PROVIDERS_OPENAI_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Translate.BatchSize)
	assert.Equal(t, "from-env", cfg.Providers.OpenAI.APIKey)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"batch size", "translate:\n  batch_size: 0\n"},
		{"formality", "translate:\n  formality: rude\n"},
		{"page size", "export:\n  page_size: B7\n"},
		{"syntax", "translate: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Translate.BatchSize)
	assert.Equal(t, "Page {page} of {pages}", cfg.Export.Footer)

	assert.Error(t, WriteDefault(path))
}
