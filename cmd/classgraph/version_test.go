package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	Version = "1.2.3"
	GitCommit = "abc123"

	root := &cobra.Command{Use: "classgraph"}
	root.AddCommand(versionCmd)

	b := new(bytes.Buffer)
	root.SetOut(b)
	versionCmd.SetOut(b)
	root.SetArgs([]string{"version"})
	assert.NoError(t, root.Execute())
}

func TestVersionCmdRegistration(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"version"})
	assert.NoError(t, err)
	assert.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Name())
}
