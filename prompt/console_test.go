package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Confirm(t *testing.T) {
	var out strings.Builder
	c := New(strings.NewReader("maybe\nY\nno\n"), &out)

	ok, err := c.Confirm("Does the subject already exist?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, strings.Count(out.String(), "Does the subject already exist? [y/n] "))

	ok, err = c.Confirm("Again?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsole_AskShouldReturnDefault(t *testing.T) {
	var out strings.Builder
	c := New(strings.NewReader("\n  /tmp/models  \n"), &out)

	answer, err := c.Ask("Folder", "models")
	require.NoError(t, err)
	assert.Equal(t, "models", answer)
	assert.Contains(t, out.String(), "Folder (models): ")

	answer, err = c.Ask("Folder", "models")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/models", answer)
}

func TestConsole_LastLineWithoutNewline(t *testing.T) {
	c := New(strings.NewReader("ann"), &strings.Builder{})

	answer, err := c.Ask("Name", "")
	require.NoError(t, err)
	assert.Equal(t, "ann", answer)
}

func TestConsole_ClosedInput(t *testing.T) {
	c := New(strings.NewReader(""), &strings.Builder{})

	answer, err := c.Ask("Folder", "models")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, "models", answer)

	_, err = c.Confirm("Sure?")
	assert.ErrorIs(t, err, ErrClosed)
}
