package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAssembly(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, initConfig())

	// No flag, no config entry: the built-in default applies.
	assert.Equal(t, "GRCh38", resolveAssembly(""))

	// A configured assembly reaches the client even without the flag.
	viper.Set("assembly", "GRCh37")
	assert.Equal(t, "GRCh37", resolveAssembly(""))

	// An explicit flag wins over config.
	assert.Equal(t, "GRCh38", resolveAssembly("GRCh38"))
}

func TestAnnotateCmd_AssemblyFlagDefaultEmpty(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// The flag default must stay empty so the config value, loaded
	// later in PersistentPreRunE, is not masked.
	cmd := newAnnotateCmd()
	flag := cmd.Flags().Lookup("assembly")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}
