package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestRootCmdFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("disable-metrics")
	assert.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestRootCmdOutputsUsageWithHelpFlag(t *testing.T) {
	oldRoot := rootCmd
	defer func() { rootCmd = oldRoot }()

	rootCmd = &cobra.Command{Use: "classgraph"}
	rootCmd.AddCommand(&cobra.Command{Use: "scan"})

	b := new(bytes.Buffer)
	rootCmd.SetOut(b)
	rootCmd.SetArgs([]string{"--help"})
	assert.NoError(t, rootCmd.Execute())
	assert.Contains(t, b.String(), "Usage:\n  classgraph [command]")
}
