package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidAmount(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"5000", true},
		{"10.50", true},
		{"10.5000000", true},
		{"0.0001", true},
		{"9999999999999999.9999", true},
		{"0", false},
		{"-1", false},
		{"0.00004", false},
		{"10.00005", false},
		{"10000000000000000", false},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidAmount(decimal.RequireFromString(tc.raw)))
		})
	}
}
