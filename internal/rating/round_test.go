package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trust-insurance/quotation/pkg/model"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{542.5705, 542.57},
		{542.809, 542.81},
		{70.875, 70.88},
		{141.75, 141.75},
		{0.015, 0.02},
		{1.005, 1.0}, // 1.005*100 is 100.49999999999999
		{2.5, 2.5},
		{-1.255, -1.25},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestSumItems(t *testing.T) {
	items := []model.CoverageItem{{Amount: 542.57}, {Amount: 750}, {Amount: 25.5}, {Amount: 0.1}, {Amount: 0.2}}
	assert.Equal(t, 1318.37, sumItems(items))
	assert.Equal(t, 0.0, sumItems(nil))
}
