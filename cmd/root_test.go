package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsAreRegistered(t *testing.T) {
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "rank", "automatch"})

	flag := rootCmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, flag)
	assert.Equal(t, ".env", flag.DefValue)
}

func TestRankRequiresEntityID(t *testing.T) {
	assert.Error(t, rankCmd.Args(rankCmd, nil))
	assert.NoError(t, rankCmd.Args(rankCmd, []string{"e1"}))
	assert.Error(t, autoMatchCmd.Args(autoMatchCmd, []string{"e1", "e2"}))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"created": 2}))
	assert.JSONEq(t, `{"created": 2}`, buf.String())
}
