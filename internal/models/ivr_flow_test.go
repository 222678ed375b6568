package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionMapValidateRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name    string
		actions ActionMap
	}{
		{"unknown action type", ActionMap{"1": {Type: "jump", Target: "menu"}}},
		{"goto without target", ActionMap{"1": {Type: ActionGoto}}},
		{"transfer without number", ActionMap{"2": {Type: ActionTransfer}}},
		{"multi-char digit key", ActionMap{"12": {Type: ActionEnd}}},
		{"letter key", ActionMap{"a": {Type: ActionEnd}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.actions.Validate()
			require.Error(t, err)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestActionMapValidateAcceptsAllVariants(t *testing.T) {
	actions := ActionMap{
		"1": {Type: ActionGoto, Target: "sales"},
		"2": {Type: ActionTransfer, Number: "+15550100"},
		"*": {Type: ActionEnd},
		"#": {Type: ActionGoto, Target: "main"},
	}

	assert.NoError(t, actions.Validate())
}

func TestActionMapScanDecodesStoredColumn(t *testing.T) {
	var actions ActionMap
	raw := []byte(`{"1":{"type":"goto","target":"sales"},"0":{"type":"end"}}`)

	require.NoError(t, actions.Scan(raw))
	assert.Equal(t, "sales", actions["1"].Target)
	assert.Equal(t, ActionEnd, actions["0"].Type)

	// nil column loads as an empty map, not nil
	var empty ActionMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestValidDigit(t *testing.T) {
	for _, digit := range []string{"0", "5", "9", "*", "#"} {
		assert.True(t, ValidDigit(digit), digit)
	}
	for _, bad := range []string{"", "10", "a", " ", "!"} {
		assert.False(t, ValidDigit(bad), bad)
	}
}
