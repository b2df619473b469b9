package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trust-insurance/quotation/pkg/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// SeedProduct is one product entry of a YAML catalogue file.
type SeedProduct struct {
	model.Product   `yaml:",inline"`
	CoverageOptions []model.CoverageOption `yaml:"coverage_options"`
}

// Seed is the YAML catalogue file layout.
type Seed struct {
	Products []SeedProduct `yaml:"products"`
}

// ParseSeed decodes a YAML catalogue. Unknown keys are rejected.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode catalogue seed: %w", err)
	}
	for i, p := range s.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalogue seed: product %d has no id", i)
		}
		if _, ok := model.ParseLine(string(p.Line)); !ok {
			return nil, fmt.Errorf("catalogue seed: product %s has unknown line %q", p.ID, p.Line)
		}
		if _, err := ParseRateTable(p.BaseRates); err != nil {
			return nil, fmt.Errorf("catalogue seed: product %s: %w", p.ID, err)
		}
	}
	return &s, nil
}

// Apply loads every seeded product and its options into m. Products get
// createdAt when the seed leaves it unset.
func (s *Seed) Apply(m *Memory, createdAt time.Time) {
	for _, sp := range s.Products {
		p := sp.Product
		p.Line, _ = model.ParseLine(string(p.Line))
		if p.CreatedAt.IsZero() {
			p.CreatedAt = createdAt
		}
		m.Upsert(p)
		m.SetCoverageOptions(p.ID, sp.CoverageOptions)
	}
}

// LoadMemory builds a Memory catalogue from a YAML file, or from the
// built-in catalogue when path is empty.
func LoadMemory(path string) (*Memory, error) {
	var r io.Reader
	if path == "" {
		r = bytes.NewReader(defaultCatalog)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalogue seed: %w", err)
		}
		defer f.Close()
		r = f
	}

	seed, err := ParseSeed(r)
	if err != nil {
		return nil, err
	}
	m := NewMemory()
	seed.Apply(m, time.Now().UTC())
	return m, nil
}
