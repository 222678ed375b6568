package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+1 (415) 555-0100", "+14155550100"},
		{"91 98765 43210", "919876543210"},
		{"  +44.20.7946.0958 ", "+442079460958"},
		{"5550100", "5550100"},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizePhoneRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "555-CALL", "123456", "+123456789012345678", "+1+2345678"} {
		_, err := NormalizePhone(in)
		assert.Error(t, err, in)
	}
}
