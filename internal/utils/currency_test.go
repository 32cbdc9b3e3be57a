package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatVND(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "0 ₫"},
		{500, "500 ₫"},
		{35000, "35.000 ₫"},
		{1234567, "1.234.567 ₫"},
		{-12000, "-12.000 ₫"},
		{99999.6, "100.000 ₫"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, FormatVND(tc.amount))
	}
}
