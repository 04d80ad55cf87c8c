package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"merge", "careers", "enrich", "geocode", "build", "serve", "publish", "version"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "jobboard", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestMergeCommand_Flags(t *testing.T) {
	for _, name := range []string{"hub", "registry", "threshold", "workers", "metrics-file"} {
		assert.NotNil(t, mergeCmd.Flags().Lookup(name), "merge should have --%s flag", name)
	}
	assert.Equal(t, "0.5", mergeCmd.Flags().Lookup("threshold").DefValue)
}

func TestStageCommands_HaveFreshFlag(t *testing.T) {
	for _, c := range []struct {
		name string
		defs func(string) bool
	}{
		{"careers", func(n string) bool { return careersCmd.Flags().Lookup(n) != nil }},
		{"enrich", func(n string) bool { return enrichCmd.Flags().Lookup(n) != nil }},
		{"geocode", func(n string) bool { return geocodeCmd.Flags().Lookup(n) != nil }},
	} {
		assert.True(t, c.defs("fresh"), "%s should have --fresh flag", c.name)
	}

	flag := careersCmd.Flags().Lookup("fresh")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("dir"))
}

func TestBuildCommand_Flags(t *testing.T) {
	assert.NotNil(t, buildCmd.Flags().Lookup("dir"))
	assert.NotNil(t, buildCmd.Flags().Lookup("geocodes-file"))
}

func TestPublishCommand_Flags(t *testing.T) {
	flag := publishCmd.Flags().Lookup("table")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}

func TestRootCommand_LogLevelFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}
