package experiments

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/adlytics/experiment-service/internal/domain"
)

// Definition describes one configured A/B test. Definitions are loaded once
// at startup and never change for the life of the process; rolling out a new
// experiment is a config change, not a code change.
type Definition struct {
	TestID      string                    `yaml:"test_id" json:"testId"`
	Description string                    `yaml:"description" json:"description"`
	TargetEvent string                    `yaml:"target_event" json:"targetEvent"`
	Variants    map[domain.Variant]string `yaml:"variants" json:"variants"`
}

// VariantLabel returns the configured description for a variant, falling
// back to the raw arm label when none is configured.
func (d *Definition) VariantLabel(v domain.Variant) string {
	if label, ok := d.Variants[v]; ok && label != "" {
		return label
	}
	return string(v)
}

// Registry holds the active experiment definitions. Read-only after Load.
type Registry struct {
	defs  []Definition
	index map[string]*Definition
}

type configFile struct {
	Experiments []Definition `yaml:"experiments"`
}

// Load reads experiment definitions from a YAML file. A missing or empty
// file yields an empty registry, which every consumer treats as "no
// experiments running" rather than an error.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil)
		}
		return nil, fmt.Errorf("failed to read experiments config: %w", err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse experiments config: %w", err)
	}

	return New(file.Experiments)
}

// New builds a registry from already-parsed definitions, validating each one.
func New(defs []Definition) (*Registry, error) {
	index := make(map[string]*Definition, len(defs))
	for i := range defs {
		def := &defs[i]
		if err := validate(def); err != nil {
			return nil, err
		}
		if _, exists := index[def.TestID]; exists {
			return nil, fmt.Errorf("duplicate experiment test_id: %s", def.TestID)
		}
		index[def.TestID] = def
	}

	return &Registry{defs: defs, index: index}, nil
}

func validate(def *Definition) error {
	if def.TestID == "" {
		return fmt.Errorf("experiment is missing test_id")
	}
	if def.TargetEvent == "" {
		return fmt.Errorf("experiment %s is missing target_event", def.TestID)
	}
	if len(def.Variants) != 2 {
		return fmt.Errorf("experiment %s must define exactly two variants, got %d", def.TestID, len(def.Variants))
	}
	for _, v := range []domain.Variant{domain.VariantA, domain.VariantB} {
		if _, ok := def.Variants[v]; !ok {
			return fmt.Errorf("experiment %s is missing variant %s", def.TestID, v)
		}
	}
	return nil
}

// All returns every active definition in config order.
func (r *Registry) All() []Definition {
	return r.defs
}

// Get looks up a definition by test id.
func (r *Registry) Get(testID string) (*Definition, bool) {
	def, ok := r.index[testID]
	return def, ok
}

// TestIDs returns the ids of every active experiment in config order.
func (r *Registry) TestIDs() []string {
	ids := make([]string, 0, len(r.defs))
	for i := range r.defs {
		ids = append(ids, r.defs[i].TestID)
	}
	return ids
}

// Len reports the number of active experiments.
func (r *Registry) Len() int {
	return len(r.defs)
}
