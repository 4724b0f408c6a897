// ABOUTME: Evaluation suite definitions loaded from YAML
// ABOUTME: A suite lists fixture documents to ingest and generation cases with ground truth

package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harper/ragdoc/internal/models"
)

// Suite is a set of documents and the cases evaluated against them
type Suite struct {
	Name      string     `yaml:"name"`
	Documents []Document `yaml:"documents"`
	Cases     []Case     `yaml:"cases"`
}

// Document is a fixture to ingest before running cases. Either Text or Path is set;
// Path is resolved relative to the suite file.
type Document struct {
	Filename string `yaml:"filename"`
	Text     string `yaml:"text"`
	Path     string `yaml:"path"`
}

// Case is one generation request plus the ground truth it is scored against
type Case struct {
	ID             string                `yaml:"id"`
	Name           string                `yaml:"name"`
	Query          string                `yaml:"query"`
	GenerationType models.GenerationType `yaml:"generation_type"`
	TopK           int                   `yaml:"top_k"`
	Filenames      []string              `yaml:"filenames"`
	GroundTruth    GroundTruth           `yaml:"ground_truth"`
}

// GroundTruth defines expected outcomes for a case
type GroundTruth struct {
	ExpectedInResponse   []string `yaml:"expected_in_response"`
	ForbiddenInResponse  []string `yaml:"forbidden_in_response"`
	ExpectedContextItems []string `yaml:"expected_context_items"`
	ExpectedSources      []string `yaml:"expected_sources"`
	// ExpectNoSources asserts retrieval finds nothing and the model is never called
	ExpectNoSources bool `yaml:"expect_no_sources"`
}

// LoadSuite reads a YAML suite and resolves document paths
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suite %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, d := range s.Documents {
		if d.Path != "" && !filepath.IsAbs(d.Path) {
			s.Documents[i].Path = filepath.Join(base, d.Path)
		}
		if s.Documents[i].Filename == "" && d.Path != "" {
			s.Documents[i].Filename = filepath.Base(d.Path)
		}
	}

	return &s, s.Validate()
}

// Validate checks that the suite is runnable
func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("suite has no cases")
	}
	for i, d := range s.Documents {
		if d.Filename == "" {
			return fmt.Errorf("document %d has no filename", i)
		}
		if (d.Text == "") == (d.Path == "") {
			return fmt.Errorf("document %s must set exactly one of text or path", d.Filename)
		}
	}
	seen := map[string]bool{}
	for i, c := range s.Cases {
		if c.ID == "" {
			return fmt.Errorf("case %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate case id %s", c.ID)
		}
		seen[c.ID] = true
		if c.Query == "" {
			return fmt.Errorf("case %s has no query", c.ID)
		}
	}
	return nil
}
