package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductAssociationTotalPrice(t *testing.T) {
	cases := []struct {
		name     string
		price    float64
		quantity float64
		margin   float64
		want     float64
	}{
		{"no margin", 100, 2, 0, 200},
		{"positive margin", 100, 2, 10, 220},
		{"fractional quantity", 12.5, 1.5, 0, 18.75},
		{"rounds to cents", 10, 3, 3.33, 31.00},
		{"repeating decimal", 9.99, 3, 7, 32.07},
		{"negative margin discounts", 100, 1, -25, 75},
		{"zero quantity", 100, 0, 10, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := ProductAssociation{
				UnitPrice:     tc.price,
				Quantity:      tc.quantity,
				MarginPercent: tc.margin,
			}
			assert.InDelta(t, tc.want, a.TotalPrice(), 1e-9)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2349))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, -1.24, Round2(-1.236))
	assert.Equal(t, 0.0, Round2(0))
}
