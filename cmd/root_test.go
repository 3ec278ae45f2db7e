package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{
		"match", "batch", "serve", "rules", "feedback",
		"review", "refresh", "stats", "export", "store",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "match-engine", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestMatchCommand_Flags(t *testing.T) {
	flag := matchCmd.Flags().Lookup("candidate")
	require.NotNil(t, flag, "match command should have --candidate flag")

	jobFlag := matchCmd.Flags().Lookup("job")
	require.NotNil(t, jobFlag, "match command should have --job flag")
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("job")
	require.NotNil(t, flag, "batch command should have --job flag")

	candFlag := batchCmd.Flags().Lookup("candidates")
	require.NotNil(t, candFlag, "batch command should have --candidates flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "export command should have --out flag")
	assert.Equal(t, "shortlist.xlsx", flag.DefValue)
}

func TestRulesCommand_HasSubcommands(t *testing.T) {
	cmds := rulesCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{
		"list", "activate", "deactivate", "templates", "duplicate",
		"import", "export", "validate", "test",
	}
	for _, name := range expected {
		assert.True(t, names[name], "rules should have subcommand %q", name)
	}
}

func TestFeedbackCommand_HasSubcommands(t *testing.T) {
	cmds := feedbackCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"add", "remove", "list"} {
		assert.True(t, names[name], "feedback should have subcommand %q", name)
	}
}

func TestStoreCommand_HasSubcommands(t *testing.T) {
	cmds := storeCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"migrate", "ping", "seed"} {
		assert.True(t, names[name], "store should have subcommand %q", name)
	}
}

func TestRulesTestCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"file", "candidate", "job"} {
		flag := rulesTestCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "rules test should have --%s flag", flagName)
	}
}

func TestFeedbackAddCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"match", "by", "type", "notes"} {
		flag := feedbackAddCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "feedback add should have --%s flag", flagName)
	}
}
