// Package catalog holds the process-wide, read-only set of personality tests.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/mindbridge/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// DefaultTestID is the Big Five test shipped with the binary.
const DefaultTestID = "big-five-default"

type file struct {
	Tests []models.Test `yaml:"tests"`
}

// Catalog is immutable once built. Lookups hand out copies so callers
// cannot mutate shared question lists.
type Catalog struct {
	tests map[string]*models.Test
	order []string
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// LoadFile reads a YAML catalog from disk. An empty path yields the default catalog.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Load parses and validates YAML catalog data.
func Load(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Tests)
}

// New builds a catalog from already-decoded tests.
func New(tests []models.Test) (*Catalog, error) {
	if len(tests) == 0 {
		return nil, errors.New("catalog has no tests")
	}
	c := &Catalog{tests: make(map[string]*models.Test, len(tests))}
	for i := range tests {
		t := tests[i]
		if err := validate(&t); err != nil {
			return nil, fmt.Errorf("test %d: %w", i, err)
		}
		if _, dup := c.tests[t.ID]; dup {
			return nil, fmt.Errorf("duplicate test id %q", t.ID)
		}
		t.Questions = append([]models.Question(nil), t.Questions...)
		c.tests[t.ID] = &t
		c.order = append(c.order, t.ID)
	}
	return c, nil
}

func validate(t *models.Test) error {
	t.ID = strings.TrimSpace(t.ID)
	t.Type = strings.TrimSpace(t.Type)
	if t.ID == "" {
		return errors.New("id required")
	}
	if t.Type == "" {
		return fmt.Errorf("%s: type required", t.ID)
	}
	if len(t.Questions) == 0 {
		return fmt.Errorf("%s: no questions", t.ID)
	}
	for i, q := range t.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%s: question %d has no text", t.ID, i)
		}
	}
	return nil
}

// Test returns a copy of the test with the given id, or nil.
func (c *Catalog) Test(id string) *models.Test {
	t, ok := c.tests[id]
	if !ok {
		return nil
	}
	return clone(t)
}

// Tests lists every test in declaration order.
func (c *Catalog) Tests() []*models.Test {
	out := make([]*models.Test, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.tests[id]))
	}
	return out
}

// Len is the number of tests.
func (c *Catalog) Len() int { return len(c.order) }

func clone(t *models.Test) *models.Test {
	cp := *t
	cp.Questions = append([]models.Question(nil), t.Questions...)
	return &cp
}
