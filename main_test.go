package main

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.2.0 (2026-01-02), Go Version: go1.24", versionString("1.2.0", "2026-01-02", "go1.24"))
	assert.Equal(t, "dev, Go Version: go1.24", versionString("dev", "", "go1.24"))
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev, Go Version: "+runtime.Version()+"\n", out.String())
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	var names []string
	for _, c := range rootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"token", "contact", "im", "serve", "version"}, names)
}
