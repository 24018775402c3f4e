package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Golden(t *testing.T) {
	out, _, err := execute(t, "", "normalize", "testdata/messy.json")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "normalize_messy", []byte(out))
}

func TestNormalize_Stdin(t *testing.T) {
	out, _, err := execute(t, `{"connector":"or","conditions":[]}`, "normalize")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"connector\": \"or\",\n  \"conditions\": []\n}\n", out)
}

func TestNormalize_InvalidFallsBackWithWarning(t *testing.T) {
	out, stderr, err := execute(t, "{not valid", "normalize")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"connector\": \"and\",\n  \"conditions\": []\n}\n", out)
	assert.Contains(t, stderr, "expression does not decode")
}

func TestNormalize_Strict(t *testing.T) {
	out, _, err := execute(t, "{not valid", "normalize", "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestNormalize_Fingerprint(t *testing.T) {
	a, _, err := execute(t, "", "normalize", "--fingerprint", "--format", "json", "testdata/messy.json")
	require.NoError(t, err)

	// Same tree, different spelling.
	b, _, err := execute(t,
		`{"connector":"and","conditions":[{"condition":{"field":{"raw_name":"username"},"operator":"include","filters":["b","a"]}},{"connector":"or"}]}`,
		"normalize", "--fingerprint", "--format", "json")
	require.NoError(t, err)

	fa := decodeNormalize(t, a)
	fb := decodeNormalize(t, b)
	require.NotEmpty(t, fa.Fingerprint)
	assert.NotEqual(t, fa.Fingerprint, fb.Fingerprint, "value order is significant")

	c, _, err := execute(t,
		`{"connector":"AND","conditions":[{"condition":{"field":"username","operator":"include","filters":"a,b"}},{"connector":"or","conditions":[]}]}`,
		"normalize", "--strict", "--format", "json")
	require.Error(t, err, "filters must be an array")
	assert.Contains(t, c, "$.conditions[0].condition.filters")
}

func TestNormalize_MissingFile(t *testing.T) {
	_, _, err := execute(t, "", "normalize", "testdata/nope.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

type normalizeEnvelope struct {
	Status string          `json:"status"`
	Data   NormalizeResult `json:"data"`
}

func decodeNormalize(t *testing.T, out string) NormalizeResult {
	t.Helper()
	var env normalizeEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.Equal(t, "ok", env.Status)
	return env.Data
}
