package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestSplitDashArgs(t *testing.T) {
	cmd := &cobra.Command{
		Use: "test",
		Run: func(*cobra.Command, []string) {},
	}
	cmd.SetArgs([]string{"myws", "--", "--stat", "HEAD~1"})

	var before, after []string

	cmd.Run = func(c *cobra.Command, args []string) {
		before, after = splitDashArgs(c, args)
	}

	require := cmd.Execute()
	assert.NoError(t, require)

	assert.Equal(t, []string{"myws"}, before)
	assert.Equal(t, []string{"--stat", "HEAD~1"}, after)
}

func TestSplitDashArgs_NoDash(t *testing.T) {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	cmd.SetArgs([]string{"myws"})

	var before, after []string

	cmd.Run = func(c *cobra.Command, args []string) {
		before, after = splitDashArgs(c, args)
	}

	assert.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"myws"}, before)
	assert.Nil(t, after)
}
