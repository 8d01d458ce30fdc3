package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100", "100", true},
		{"  1234.5 ", "1234.5", true},
		{"1,234,567.89", "1234567.89", true},
		{"-42", "-42", true},
		{"(250)", "-250", true},
		{"1.5E+3", "1500", true},
		{"", "", false},
		{"   ", "", false},
		{"abc", "", false},
		{"12abc", "", false},
		{"-", "", false},
		{"NaN", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseNumeric(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got.String(), "input %q", tc.in)
		}
	}
}

func TestParseNumericKeepsPrecision(t *testing.T) {
	got, ok := ParseNumeric("0.1234567891234")
	assert.True(t, ok)
	assert.Equal(t, "0.1234567891234", got.String())
}

func TestParseInt(t *testing.T) {
	v, ok := ParseInt("2025")
	assert.True(t, ok)
	assert.Equal(t, 2025, v)

	v, ok = ParseInt("12.0")
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = ParseInt("12.5")
	assert.False(t, ok)

	_, ok = ParseInt("Desember")
	assert.False(t, ok)

	_, ok = ParseInt("")
	assert.False(t, ok)
}
