package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/mindbridge/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	bf := c.Test(DefaultTestID)
	require.NotNil(t, bf)
	assert.Equal(t, models.TestTypeBigFive, bf.Type)
	assert.Equal(t, 20, bf.TotalQuestions())
	assert.Equal(t, models.TraitExtraversion, bf.Questions[0].Trait)

	counts := map[string]int{}
	for _, q := range bf.Questions {
		counts[q.Trait]++
	}
	for _, trait := range models.BigFiveTraits {
		assert.Equal(t, 4, counts[trait], trait)
	}
}

func TestCatalogReturnsCopies(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	first := c.Test(DefaultTestID)
	first.Questions[0].Text = "mutated"
	first.Questions = first.Questions[:1]

	second := c.Test(DefaultTestID)
	assert.NotEqual(t, "mutated", second.Questions[0].Text)
	assert.Equal(t, 20, second.TotalQuestions())
}

func TestUnknownTest(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Nil(t, c.Test("nope"))
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"empty":        "tests: []",
		"missing id":   "tests:\n  - type: big-five\n    questions:\n      - text: a\n",
		"missing type": "tests:\n  - id: x\n    questions:\n      - text: a\n",
		"no questions": "tests:\n  - id: x\n    type: big-five\n",
		"blank text":   "tests:\n  - id: x\n    type: big-five\n    questions:\n      - text: ' '\n",
		"duplicate":    "tests:\n  - id: x\n    type: t\n    questions:\n      - text: a\n  - id: x\n    type: t\n    questions:\n      - text: b\n",
		"bad yaml":     "tests: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := "tests:\n  - id: custom\n    name: Custom\n    type: big-five\n    questions:\n      - text: I like lists.\n        trait: conscientiousness\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Custom", c.Tests()[0].Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 3, def.Len())
}
