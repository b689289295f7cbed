package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "run"}, names)
}

func TestServeCommand_Flags(t *testing.T) {
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)

	addr := serve.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, ":8080", addr.DefValue)

	maxConns := serve.Flags().Lookup("max-conns")
	require.NotNil(t, maxConns)
	assert.Equal(t, "16", maxConns.DefValue)
}

func TestRootCommand_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "paranoid")

	root := newRootCmd()
	root.SetArgs([]string{"run"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXECUTION_MODE")
}
