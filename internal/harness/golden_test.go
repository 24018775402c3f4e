package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with -update to regenerate:
//
//	go test ./internal/harness -run TestScripts_Golden -update
func TestScripts_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scripts", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		script, err := LoadScript(path)
		require.NoError(t, err, path)

		t.Run(script.Name, func(t *testing.T) {
			catalog, err := script.LoadCatalog()
			require.NoError(t, err)

			result := RunWithGolden(t, script, catalog)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(script.Steps))
		})
	}
}
