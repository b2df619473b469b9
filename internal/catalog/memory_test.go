package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trust-insurance/quotation/pkg/model"
)

func TestMemory_ActiveProductPicksNewest(t *testing.T) {
	m := NewMemory()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Upsert(model.Product{ID: "M-OLD", Line: model.LineMotor, Active: true, CreatedAt: t0})
	m.Upsert(model.Product{ID: "M-NEW", Line: model.LineMotor, Active: true, CreatedAt: t0.Add(time.Hour)})
	m.Upsert(model.Product{ID: "M-OFF", Line: model.LineMotor, Active: false, CreatedAt: t0.Add(2 * time.Hour)})

	p, err := m.ActiveProduct(context.Background(), model.LineMotor)
	require.NoError(t, err)
	assert.Equal(t, "M-NEW", p.ID)

	_, err = m.ActiveProduct(context.Background(), model.LineLife)
	assert.ErrorIs(t, err, ErrNoActiveProduct)
}

func TestMemory_CoverageOptionsAreCopies(t *testing.T) {
	m := NewMemory()
	m.SetCoverageOptions("P1", []model.CoverageOption{{Code: "FLOOD", LoadFactor: 75}})

	opts, err := m.CoverageOptions(context.Background(), "P1")
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "P1", opts[0].ProductID)

	opts[0].LoadFactor = 0
	again, _ := m.CoverageOptions(context.Background(), "P1")
	assert.Equal(t, 75.0, again[0].LoadFactor)

	none, err := m.CoverageOptions(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_ListProducts(t *testing.T) {
	m, err := LoadMemory("")
	require.NoError(t, err)

	all, err := m.ListProducts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "LIFE-TERM-2024", all[0].ID)

	motor, err := m.ListProducts(context.Background(), model.LineMotor)
	require.NoError(t, err)
	require.Len(t, motor, 1)
	assert.Equal(t, "MOTOR-STD-2024", motor[0].ID)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Upsert(model.Product{ID: "P", Line: model.LineLife, Active: true})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = m.ActiveProduct(context.Background(), model.LineLife)
			}
		}()
	}
	wg.Wait()
}

func TestParseSeed_DefaultCatalogue(t *testing.T) {
	m, err := LoadMemory("")
	require.NoError(t, err)

	p, err := m.ActiveProduct(context.Background(), model.LineLife)
	require.NoError(t, err)
	rt, err := ParseRateTable(p.BaseRates)
	require.NoError(t, err)
	require.Len(t, rt.AgeBands, 4)
	assert.Equal(t, 1.35, rt.SmokerLoad)

	opts, err := m.CoverageOptions(context.Background(), "MOTOR-STD-2024")
	require.NoError(t, err)
	require.Len(t, opts, 4)
	assert.Equal(t, "BASIC", opts[0].Code)
	assert.True(t, opts[0].DefaultOn)
}

func TestParseSeed_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "products:\n  - id: X\n    line: Motor\n    colour: red\n",
		"missing id":    "products:\n  - line: Motor\n",
		"unknown line":  "products:\n  - id: X\n    line: Home\n",
		"bad rates":     "products:\n  - id: X\n    line: Life\n    base_rates:\n      base: lots\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestSeedApply_NormalisesLine(t *testing.T) {
	seed, err := ParseSeed(strings.NewReader("products:\n  - id: X\n    line: motor\n    active: true\n"))
	require.NoError(t, err)

	m := NewMemory()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seed.Apply(m, at)

	p, err := m.ActiveProduct(context.Background(), model.LineMotor)
	require.NoError(t, err)
	assert.Equal(t, at, p.CreatedAt)
}

func TestLoadMemory_MissingFile(t *testing.T) {
	_, err := LoadMemory("/nonexistent/catalog.yaml")
	assert.Error(t, err)
}
