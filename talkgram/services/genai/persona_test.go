package genai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPersonaMissingFileFallsBack(t *testing.T) {
	p := LoadPersona(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, DefaultPersona(), p)
}

func TestLoadPersonaOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: OtherBot\ngreeting: hello there\n"), 0o644))

	p := LoadPersona(path)
	assert.Equal(t, "OtherBot", p.Name)
	assert.Equal(t, "hello there", p.Greeting)
	// untouched fields keep the defaults
	assert.Equal(t, DefaultPersona().Apology, p.Apology)
}

func TestLoadPersonaBrokenYAMLFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	p := LoadPersona(path)
	assert.Equal(t, DefaultPersona(), p)
}
