package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreflightCommand_Flags(t *testing.T) {
	// Ensure init() has run and flags are bound.
	require.NotNil(t, preflightCmd)

	for _, name := range []string{"project", "provider", "region"} {
		flag := preflightCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "%s flag should be defined on the preflight command", name)
	}
}
