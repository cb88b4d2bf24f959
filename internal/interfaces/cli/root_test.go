package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "worker", "migrate", "suggest"} {
		assert.True(t, names[want], want)
	}
}

func TestRootGlobalFlags(t *testing.T) {
	root := NewRootCommand()
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestSuggestRequiresInput(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"suggest", "--tenant", "acme"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--identifier or --description")
}

func TestMigrateSubcommands(t *testing.T) {
	root := NewRootCommand()
	migrate, _, err := root.Find([]string{"migrate"})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, c := range migrate.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["up"])
	assert.True(t, names["down"])
	assert.True(t, names["status"])
}

func TestVersionTemplate(t *testing.T) {
	root := NewRootCommand()
	assert.Contains(t, root.Version, "dev")
}
