// ABOUTME: Tests for random-forest model loading and inference
// ABOUTME: Covers manifest parsing, structural validation, and majority voting

package advisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
name = "crop-forest-test"
features = ["n", "p", "k", "humidity", "rainfall"]
forest_file = "forest.json"
`

// Two trees vote rice for wet inputs, one always votes maize.
const testForest = `[
  {"nodes": [
    {"feature": 4, "threshold": 100, "left": 1, "right": 2},
    {"feature": -1, "label": "maize"},
    {"feature": -1, "label": "rice"}
  ]},
  {"nodes": [
    {"feature": 3, "threshold": 60, "left": 1, "right": 2},
    {"feature": -1, "label": "chickpea"},
    {"feature": -1, "label": "rice"}
  ]},
  {"nodes": [
    {"feature": -1, "label": "maize"}
  ]}
]`

func writeModelDir(t *testing.T, manifest, forest string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0644))
	if forest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "forest.json"), []byte(forest), 0644))
	}
	return dir
}

func TestLoadForest_Valid(t *testing.T) {
	dir := writeModelDir(t, testManifest, testForest)

	f, err := LoadForest(dir)
	require.NoError(t, err)
	assert.Equal(t, "crop-forest-test", f.Name())
}

func TestForest_MajorityVote(t *testing.T) {
	dir := writeModelDir(t, testManifest, testForest)
	f, err := LoadForest(dir)
	require.NoError(t, err)

	// Wet and humid: trees vote rice, rice, maize
	label, err := f.Predict([]float64{50, 40, 45, 80, 200})
	require.NoError(t, err)
	assert.Equal(t, "rice", label)

	// Dry and arid: trees vote maize, chickpea, maize
	label, err = f.Predict([]float64{50, 40, 45, 30, 50})
	require.NoError(t, err)
	assert.Equal(t, "maize", label)
}

func TestForest_FeatureCountMismatch(t *testing.T) {
	dir := writeModelDir(t, testManifest, testForest)
	f, err := LoadForest(dir)
	require.NoError(t, err)

	_, err = f.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestLoadForest_MissingManifest(t *testing.T) {
	_, err := LoadForest(t.TempDir())
	assert.Error(t, err)
}

func TestLoadForest_MissingForestFile(t *testing.T) {
	dir := writeModelDir(t, testManifest, "")
	_, err := LoadForest(dir)
	assert.Error(t, err)
}

func TestLoadForest_EmptyFeatures(t *testing.T) {
	dir := writeModelDir(t, `
name = "bad"
features = []
forest_file = "forest.json"
`, testForest)
	_, err := LoadForest(dir)
	assert.ErrorContains(t, err, "features")
}

func TestLoadForest_StructuralValidation(t *testing.T) {
	tests := []struct {
		name   string
		forest string
	}{
		{"empty forest", `[]`},
		{"tree without nodes", `[{"nodes": []}]`},
		{"leaf without label", `[{"nodes": [{"feature": -1}]}]`},
		{
			"feature index out of range",
			`[{"nodes": [
				{"feature": 9, "threshold": 1, "left": 1, "right": 2},
				{"feature": -1, "label": "a"},
				{"feature": -1, "label": "b"}
			]}]`,
		},
		{
			"child index out of range",
			`[{"nodes": [
				{"feature": 0, "threshold": 1, "left": 5, "right": 1},
				{"feature": -1, "label": "a"}
			]}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeModelDir(t, testManifest, tt.forest)
			_, err := LoadForest(dir)
			assert.Error(t, err)
		})
	}
}

func TestForest_AdvisorIntegration(t *testing.T) {
	dir := writeModelDir(t, testManifest, testForest)
	f, err := LoadForest(dir)
	require.NoError(t, err)

	a := New(f)
	rec, err := a.Recommend(Input{N: 50, P: 40, K: 45, Humidity: 80, Rainfall: 200})
	require.NoError(t, err)
	assert.Equal(t, "RICE", rec.Crop)
	assert.NotEmpty(t, rec.GeneratedAt)
}
