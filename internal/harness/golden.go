package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
)

// RunWithGolden runs script and compares its submitted payload against
// testdata/golden/<script name>.golden.
//
// Run tests with -update to rewrite golden files. Returns the result so
// callers can add their own checks; step or assertion failures are
// reported through t.
func RunWithGolden(t *testing.T, script *Script, catalog metadata.Provider) *Result {
	t.Helper()

	result, err := Run(script, catalog)
	if err != nil {
		t.Fatalf("run %s: %v", script.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", script.Name, e)
	}

	AssertGolden(t, script.Name, result)
	return result
}

// AssertGolden compares result's submitted payload against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Submitted))
}
