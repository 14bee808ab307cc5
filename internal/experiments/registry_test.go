package experiments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlytics/experiment-service/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
experiments:
  - test_id: dashboard_layout
    description: Layout comparison
    target_event: create_widget
    variants:
      A: Classic layout
      B: Compact layout
  - test_id: pricing_cta
    description: Pricing CTA copy
    target_event: signup_completed
    variants:
      A: Monthly first
      B: Annual first
`)

	registry, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []string{"dashboard_layout", "pricing_cta"}, registry.TestIDs())

	def, ok := registry.Get("pricing_cta")
	require.True(t, ok)
	assert.Equal(t, "signup_completed", def.TargetEvent)
	assert.Equal(t, "Annual first", def.VariantLabel(domain.VariantB))
}

func TestLoad_MissingFileYieldsEmptyRegistry(t *testing.T) {
	registry, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.TestIDs())
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "experiments: [not: valid")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNew_RejectsMissingVariantB(t *testing.T) {
	_, err := New([]Definition{{
		TestID:      "t1",
		TargetEvent: "buy",
		Variants:    map[domain.Variant]string{domain.VariantA: "only one"},
	}})

	assert.ErrorContains(t, err, "exactly two variants")
}

func TestNew_RejectsExtraVariant(t *testing.T) {
	_, err := New([]Definition{{
		TestID:      "t1",
		TargetEvent: "buy",
		Variants: map[domain.Variant]string{
			domain.VariantA: "a",
			domain.VariantB: "b",
			"C":             "c",
		},
	}})

	assert.ErrorContains(t, err, "exactly two variants")
}

func TestNew_RejectsDuplicateTestID(t *testing.T) {
	def := Definition{
		TestID:      "t1",
		TargetEvent: "buy",
		Variants:    map[domain.Variant]string{domain.VariantA: "a", domain.VariantB: "b"},
	}

	_, err := New([]Definition{def, def})
	assert.ErrorContains(t, err, "duplicate experiment")
}

func TestNew_RejectsMissingTargetEvent(t *testing.T) {
	_, err := New([]Definition{{
		TestID:   "t1",
		Variants: map[domain.Variant]string{domain.VariantA: "a", domain.VariantB: "b"},
	}})

	assert.ErrorContains(t, err, "target_event")
}

func TestVariantLabel_FallsBackToRawArm(t *testing.T) {
	def := Definition{
		TestID:      "t1",
		TargetEvent: "buy",
		Variants:    map[domain.Variant]string{domain.VariantA: "", domain.VariantB: "b label"},
	}

	assert.Equal(t, "A", def.VariantLabel(domain.VariantA))
	assert.Equal(t, "b label", def.VariantLabel(domain.VariantB))
}
