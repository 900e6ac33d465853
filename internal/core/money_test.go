package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		nan bool
	}{
		{"500", 500, false},
		{"1.23", 1.23, false},
		{" 2.50 ", 2.5, false},
		{"-1", -1, false},
		{"0", 0, false},
		{"+7", 7, false},
		{".5", 0.5, false},
		{"5.", 5, false},
		{"1e3", 1000, false},
		{"1e", 1, false},
		{"12abc", 12, false},
		{"1.2.3", 1.2, false},
		{"1,23", 1, false},
		{"Infinity", math.Inf(1), false},
		{"-Infinity", math.Inf(-1), false},
		{"abc", 0, true},
		{"", 0, true},
		{"-", 0, true},
		{".", 0, true},
		{"e5", 0, true},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in)
		if tc.nan {
			if !math.IsNaN(got) {
				t.Fatalf("%q expected NaN, got %v", tc.in, got)
			}
			continue
		}
		if got != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{500, "500"},
		{12.5, "12.5"},
		{-3, "-3"},
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{0.1, "0.1"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{-2.5e22, "-2.5e+22"},
		{1e300, "1e+300"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-10, "1.5e-10"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Fatalf("%v expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
