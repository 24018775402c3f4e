package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScript_ResolvesCatalogRelativeToScript(t *testing.T) {
	script, err := LoadScript(filepath.Join("testdata", "scripts", "build_nested.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "build_nested", script.Name)
	assert.Equal(t, filepath.Join("testdata", "catalog.yaml"), script.Catalog)
	assert.Len(t, script.Steps, 12)

	catalog, err := script.LoadCatalog()
	require.NoError(t, err)
	assert.Len(t, catalog.Fields(), 4)
}

func TestLoadScript_MissingFile(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read script file")
}

func TestLoadScript_AbsoluteCatalogKept(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "elsewhere", "catalog.yaml")
	path := filepath.Join(dir, "s.yaml")
	data := "name: s\ncatalog: " + catalog + "\nsteps:\n  - action: add_group\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	script, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, catalog, script.Catalog)
}

func TestLoadCatalog_NoneNamed(t *testing.T) {
	script := &Script{Name: "s"}
	catalog, err := script.LoadCatalog()
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown key",
			yaml:    "name: s\nstep:\n  - action: add_group\n",
			wantErr: "field step not found",
		},
		{
			name:    "missing name",
			yaml:    "steps:\n  - action: add_group\n",
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			yaml:    "name: s\n",
			wantErr: "steps list is required",
		},
		{
			name:    "missing action",
			yaml:    "name: s\nsteps:\n  - node: x\n",
			wantErr: "steps[0]: action is required",
		},
		{
			name:    "unknown action",
			yaml:    "name: s\nsteps:\n  - action: undo\n",
			wantErr: `unknown action "undo"`,
		},
		{
			name:    "delete without node",
			yaml:    "name: s\nsteps:\n  - action: delete\n",
			wantErr: "node is required for delete",
		},
		{
			name:    "delete_at without index",
			yaml:    "name: s\nsteps:\n  - action: delete_at\n",
			wantErr: "index is required for delete_at",
		},
		{
			name:    "set_value without text",
			yaml:    "name: s\nsteps:\n  - action: set_value\n    node: c\n",
			wantErr: "text is required for set_value",
		},
		{
			name:    "set_field without field",
			yaml:    "name: s\nsteps:\n  - action: set_field\n    node: c\n",
			wantErr: "field is required for set_field",
		},
		{
			name:    "bad switch mode",
			yaml:    "name: s\nsteps:\n  - action: switch\n    mode: raw\n",
			wantErr: `mode must be textual or structured, got "raw"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: s\nsteps:\n  - action: add_group\nassertions:\n  - type: trace_order\n",
			wantErr: `unknown type "trace_order"`,
		},
		{
			name:    "check without ok",
			yaml:    "name: s\nsteps:\n  - action: add_group\nassertions:\n  - type: check\n",
			wantErr: "ok is required for check",
		},
		{
			name:    "node_count zero",
			yaml:    "name: s\nsteps:\n  - action: add_group\nassertions:\n  - type: node_count\n",
			wantErr: "count must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScript_EmptyTextAllowed(t *testing.T) {
	script, err := ParseScript([]byte("name: s\nsteps:\n  - action: set_value\n    node: c\n    text: \"\"\n"))
	require.NoError(t, err)
	require.NotNil(t, script.Steps[0].Text)
	assert.Equal(t, "", *script.Steps[0].Text)
}
