package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

func TestBuiltinsCoverEveryKnownApp(t *testing.T) {
	c := New()

	for _, id := range types.AllAppIDs() {
		def, ok := c.Lookup(id)
		require.True(t, ok, "missing builtin for %s", id)
		assert.True(t, def.Policy.Valid())
		assert.NotEmpty(t, def.Title)
	}
	assert.Len(t, c.List(nil), len(types.AllAppIDs()))
	assert.False(t, c.Has("solitaire"))
}

func TestPolicyDefaults(t *testing.T) {
	c := New()

	assert.Equal(t, types.PolicySingle, c.Policy(types.AppBookmarks))
	assert.Equal(t, types.PolicyMulti, c.Policy(types.AppNotes))
	assert.Equal(t, types.PolicySingle, c.Policy("solitaire"))
}

func TestApply(t *testing.T) {
	c := New()
	x, y := 40, 60

	err := c.Apply(Manifest{
		ID:     "bookmarks",
		Title:  "Reading List",
		Policy: "multi",
		Window: &WindowManifest{X: &x, Y: &y, Width: 900, Height: 700},
	})
	require.NoError(t, err)

	def, _ := c.Lookup(types.AppBookmarks)
	assert.Equal(t, "Reading List", def.Title)
	assert.Equal(t, "bookmark", def.Icon, "untouched fields keep builtin values")
	assert.Equal(t, types.PolicyMulti, def.Policy)
	assert.Equal(t, &types.Size{Width: 900, Height: 700}, def.DefaultSize)
	assert.Equal(t, &types.Position{X: 40, Y: 60}, def.DefaultPosition)
	assert.Equal(t, 1, c.Stats().ManifestsOK)
}

func TestApplyRejectsUnknownApp(t *testing.T) {
	c := New()

	err := c.Apply(Manifest{ID: "solitaire", Title: "Solitaire"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownApp)
	assert.False(t, c.Has("solitaire"))
}

func TestApplyRejectsBadPolicy(t *testing.T) {
	c := New()
	assert.Error(t, c.Apply(Manifest{ID: "notes", Policy: "sometimes"}))
	assert.Equal(t, types.PolicyMulti, c.Policy(types.AppNotes))
}

func TestListByCategory(t *testing.T) {
	c := New()
	system := "system"

	defs := c.List(&system)
	require.NotEmpty(t, defs)
	for _, def := range defs {
		assert.Equal(t, "system", def.Category)
	}
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		data    string
		wantID  string
		wantErr bool
	}{
		{name: "yaml", ext: ".yaml", data: "id: notes\ntitle: Scratchpad\n", wantID: "notes"},
		{name: "yml", ext: ".yml", data: "id: about\n", wantID: "about"},
		{name: "toml", ext: ".toml", data: "id = \"terminal\"\npolicy = \"single\"\n", wantID: "terminal"},
		{name: "missing id", ext: ".yaml", data: "title: Nameless\n", wantErr: true},
		{name: "bad toml", ext: ".toml", data: "id = ", wantErr: true},
		{name: "json unsupported", ext: ".json", data: "{}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest(tt.ext, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, m.ID)
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSeederLoadsManifests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bookmarks.yaml"), "id: bookmarks\ntitle: Links\nwindow:\n  width: 500\n  height: 400\n")
	writeFile(t, filepath.Join(dir, "nested", "deep", "terminal.toml"), "id = \"terminal\"\npolicy = \"single\"\n")
	writeFile(t, filepath.Join(dir, "solitaire.yaml"), "id: solitaire\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# not a manifest\n")

	c := New()
	result, err := NewSeeder(c, dir, "", nil).Seed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors, "solitaire.yaml")

	def, _ := c.Lookup(types.AppBookmarks)
	assert.Equal(t, "Links", def.Title)
	assert.Equal(t, &types.Size{Width: 500, Height: 400}, def.DefaultSize)
	assert.Equal(t, types.PolicySingle, c.Policy(types.AppTerminal))
}

func TestSeederCustomPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "notes.yaml"), "id: notes\ntitle: A\n")
	writeFile(t, filepath.Join(dir, "b", "notes.yaml"), "id: notes\ntitle: B\n")

	c := New()
	result, err := NewSeeder(c, dir, "b/*.yaml", nil).Seed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Loaded)
	def, _ := c.Lookup(types.AppNotes)
	assert.Equal(t, "B", def.Title)
}

func TestSeederMissingDirectory(t *testing.T) {
	c := New()
	result, err := NewSeeder(c, filepath.Join(t.TempDir(), "absent"), "", nil).Seed(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Loaded)
}

func TestSeederInvalidPattern(t *testing.T) {
	_, err := NewSeeder(New(), t.TempDir(), "[", nil).Seed(context.Background())
	assert.Error(t, err)
}
