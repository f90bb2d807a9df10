package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/search"
)

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope", "settings.yaml"))
	require.NoError(t, err)
	assert.Empty(t, s.OpenAIAPIKey)
	assert.Equal(t, search.MethodAuto, s.Method())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "settings.yaml")

	original := &Settings{
		OpenAIAPIKey: "sk-test-123",
		SearchMethod: "local",
		DatabasePath: "/tmp/recall-db",
	}
	require.NoError(t, original.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
	assert.Equal(t, search.MethodLocal, loaded.Method())
}

func TestSaveRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := &Settings{OpenAIAPIKey: "sk-secret"}
	require.NoError(t, s.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestValidateRejectsUnknownMethod(t *testing.T) {
	s := &Settings{SearchMethod: "quantum"}
	assert.ErrorIs(t, s.Validate(), search.ErrUnknownMethod)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	assert.Error(t, s.Save(path))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai_api_key: [not: a: string"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
