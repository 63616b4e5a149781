package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{name: "zero", input: "0", want: 0, ok: true},
		{name: "plain", input: "42", want: 42, ok: true},
		{name: "large", input: "16777215", want: 16777215, ok: true},
		{name: "leading zero", input: "007"},
		{name: "double zero", input: "00"},
		{name: "decimal", input: "1.0"},
		{name: "fraction", input: "1.5"},
		{name: "plus sign", input: "+3"},
		{name: "negative", input: "-1"},
		{name: "negative zero", input: "-0"},
		{name: "hex", input: "0x1"},
		{name: "empty", input: ""},
		{name: "letters", input: "abc"},
		{name: "trailing garbage", input: "12a"},
		{name: "leading space", input: " 1"},
		{name: "trailing space", input: "1 "},
		{name: "overflow", input: "99999999999999999999999"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCoordinate(tc.input)
			if !tc.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("3", "5", "2")
	require.NoError(t, err)
	assert.Equal(t, Address{Z: 3, X: 5, Y: 2}, addr)

	// x is checked before y and z
	_, err = ParseAddress("zz", "01", "yy")
	require.ErrorIs(t, err, ErrMalformedCoordinate)
	assert.Contains(t, err.Error(), "x:")

	_, err = ParseAddress("zz", "1", "yy")
	require.ErrorIs(t, err, ErrMalformedCoordinate)
	assert.Contains(t, err.Error(), "y:")

	_, err = ParseAddress("zz", "1", "1")
	require.ErrorIs(t, err, ErrMalformedCoordinate)
	assert.Contains(t, err.Error(), "z:")
}

func TestAddressValid(t *testing.T) {
	assert.NoError(t, Address{Z: 0, X: 0, Y: 0}.Valid())
	assert.NoError(t, Address{Z: 2, X: 3, Y: 3}.Valid())
	assert.ErrorIs(t, Address{Z: 2, X: 4, Y: 0}.Valid(), ErrOutOfRange)
	assert.ErrorIs(t, Address{Z: 0, X: 0, Y: 1}.Valid(), ErrOutOfRange)
	assert.ErrorIs(t, Address{Z: MaxZoom + 1}.Valid(), ErrOutOfRange)
}
