package gst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateIntraState(t *testing.T) {
	got := Calculate(10000, "MH", "MH", 18)
	require.Equal(t, float64(900), got.CGST)
	require.Equal(t, float64(900), got.SGST)
	require.Equal(t, float64(0), got.IGST)
	require.Equal(t, float64(1800), got.TotalGST)
	require.Equal(t, float64(11800), got.TotalAmount)
}

func TestCalculateInterState(t *testing.T) {
	got := Calculate(10000, "GJ", "MH", 18)
	require.Equal(t, float64(0), got.CGST)
	require.Equal(t, float64(0), got.SGST)
	require.Equal(t, float64(1800), got.IGST)
	require.Equal(t, float64(1800), got.TotalGST)
	require.Equal(t, float64(11800), got.TotalAmount)
}

func TestCalculateRoundsToWholeUnits(t *testing.T) {
	// 5% of 1050 is 52.50; each half is 26.25 and rounds to 26
	// independently, so the halves sum below the full-rate figure.
	got := Calculate(1050, "MH", "MH", 5)
	require.Equal(t, float64(26), got.CGST)
	require.Equal(t, float64(26), got.SGST)
	require.Equal(t, float64(52), got.TotalGST)

	inter := Calculate(1050, "GJ", "MH", 5)
	require.Equal(t, float64(53), inter.IGST)
}

func TestCalculateZeroAmount(t *testing.T) {
	got := Calculate(0, "MH", "MH", 18)
	require.Equal(t, float64(0), got.TotalGST)
	require.Equal(t, float64(0), got.TotalAmount)
}

func TestCalculateComponentsAlwaysSum(t *testing.T) {
	cases := []struct {
		amount        float64
		customerState string
		rate          float64
	}{
		{999, "MH", 18},
		{999, "KA", 18},
		{123456, "MH", 12},
		{123456, "TN", 28},
		{1, "MH", 5},
	}
	for _, tc := range cases {
		got := Calculate(tc.amount, tc.customerState, "MH", tc.rate)
		require.Equal(t, got.CGST+got.SGST+got.IGST, got.TotalGST)
		require.Equal(t, tc.amount+got.TotalGST, got.TotalAmount)
	}
}
