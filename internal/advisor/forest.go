// ABOUTME: Random-forest classifier loaded from an offline-exported model directory
// ABOUTME: manifest.toml names the feature order and the JSON-encoded tree file

package advisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the model manifest filename inside the model directory.
const ManifestName = "manifest.toml"

// manifest describes an exported model directory.
type manifest struct {
	Name       string   `toml:"name"`
	Features   []string `toml:"features"`
	ForestFile string   `toml:"forest_file"`
}

// treeNode is one node of a decision tree. Internal nodes split on
// features[Feature] <= Threshold (left) vs > (right); leaves carry a Label
// and have Feature set to -1.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Label     string  `json:"label"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

// Forest is a majority-vote ensemble of decision trees, trained offline and
// exported to JSON. Read-only after load.
type Forest struct {
	name         string
	featureCount int
	trees        []tree
}

// LoadForest reads a model directory containing manifest.toml and the
// forest file it names.
func LoadForest(dir string) (*Forest, error) {
	var m manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, ManifestName), &m); err != nil {
		return nil, fmt.Errorf("reading model manifest: %w", err)
	}

	if len(m.Features) == 0 {
		return nil, fmt.Errorf("model manifest: features list is empty")
	}
	if m.ForestFile == "" {
		return nil, fmt.Errorf("model manifest: forest_file is required")
	}

	data, err := os.ReadFile(filepath.Join(dir, m.ForestFile))
	if err != nil {
		return nil, fmt.Errorf("reading forest file: %w", err)
	}

	var trees []tree
	if err := json.Unmarshal(data, &trees); err != nil {
		return nil, fmt.Errorf("parsing forest file: %w", err)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest file contains no trees")
	}

	f := &Forest{
		name:         m.Name,
		featureCount: len(m.Features),
		trees:        trees,
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// validate checks node indices and leaf labels up front so Predict cannot
// walk out of bounds at request time.
func (f *Forest) validate() error {
	for ti, t := range f.trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				if n.Label == "" {
					return fmt.Errorf("tree %d node %d: leaf without label", ti, ni)
				}
				continue
			}
			if n.Feature >= f.featureCount {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}

// Name returns the model name from the manifest.
func (f *Forest) Name() string {
	return f.name
}

// Predict runs every tree on the feature vector and returns the majority
// label. Ties break toward the label reaching the count first, which keeps
// the result deterministic for a fixed tree order.
func (f *Forest) Predict(features []float64) (string, error) {
	if len(features) != f.featureCount {
		return "", fmt.Errorf("expected %d features, got %d", f.featureCount, len(features))
	}

	votes := make(map[string]int, len(f.trees))
	best := ""
	for _, t := range f.trees {
		label, err := t.classify(features)
		if err != nil {
			return "", err
		}
		votes[label]++
		if best == "" || votes[label] > votes[best] {
			best = label
		}
	}

	return best, nil
}

// classify walks the tree from the root. The hop budget guards against a
// malformed cyclic tree that slipped past validation.
func (t *tree) classify(features []float64) (string, error) {
	idx := 0
	for hops := 0; hops <= len(t.Nodes); hops++ {
		n := t.Nodes[idx]
		if n.Feature < 0 {
			return n.Label, nil
		}
		if features[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return "", fmt.Errorf("tree walk exceeded node count, tree is cyclic")
}
