package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesMatch(t *testing.T) {
	cases := []struct {
		typed, expected string
		want            bool
	}{
		{"Jane Doe", "Jane Doe", true},
		{"jane doe", "Jane Doe", true},
		{"  Jane   Doe  ", "Jane Doe", true},
		{"JANE DOE", "jane doe", true},
		{"Jane Does", "Jane Doe", false},
		{"Jane", "Jane Doe", false},
		{"", "Jane Doe", false},
		{"", "", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NamesMatch(tc.typed, tc.expected), "typed=%q expected=%q", tc.typed, tc.expected)
	}
}

func TestConfirmRecordsMismatchWithoutRejecting(t *testing.T) {
	c := Confirm("sig_1", "Jon Smith", "Jane Doe", "", true)
	assert.False(t, c.TypedNameMatch)
	assert.Equal(t, "sig_1", c.SignatureID)
	assert.Equal(t, DefaultStatement, c.IntentStatement)
	assert.True(t, c.IntentConfirmed)
	assert.NotEmpty(t, c.ConfirmationID)
}

func TestConfirmKeepsProvidedStatement(t *testing.T) {
	c := Confirm("sig_1", "Jane Doe", "Jane Doe", "custom statement", true)
	assert.Equal(t, "custom statement", c.IntentStatement)
	assert.True(t, c.TypedNameMatch)
}
