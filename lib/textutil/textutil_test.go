package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Mike  Miller, Jr.", expected: "mikemillerjr"},
		{input: " mike miller jr\n", expected: "mikemillerjr"},
		{input: "O'Connor", expected: "oconnor"},
		{input: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeName(test.input), test.input)
	}
}

func TestCleanString(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		valid    bool
	}{
		{input: "  HB 1 ", expected: "HB 1", valid: true},
		{input: "line one\r\nline two", expected: "line one\nline two", valid: true},
		{input: "   ", valid: false},
		{input: "", valid: false},
	}
	for _, test := range testCases {
		out, ok := CleanString(test.input)
		require.Equal(t, test.valid, ok, test.input)
		require.Equal(t, test.expected, out, test.input)
	}
}
