package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heist/pkg/game/gameplay"
	"heist/pkg/game/stage"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want stage.Role
	}{
		{"hacker", stage.Hacker},
		{"Hacker", stage.Hacker},
		{"safecracker", stage.SafeCracker},
		{"safe-cracker", stage.SafeCracker},
		{"Safe Cracker", stage.SafeCracker},
		{"DEMOLITIONS", stage.Demolitions},
		{"look_out", stage.Lookout},
	}
	for _, tt := range tests {
		got, err := parseRole(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseRole("driver")
	assert.Error(t, err)
}

func TestResultText(t *testing.T) {
	assert.Empty(t, resultText(gameplay.ResultNone))
	for _, r := range []gameplay.Result{gameplay.ResultWon, gameplay.ResultLost, gameplay.ResultQuit} {
		assert.NotEmpty(t, resultText(r), r.String())
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"play", "gui", "serve"} {
		if !names[want] {
			t.Errorf("rootCmd is missing the %q command", want)
		}
	}
}

func TestRoleFlag_EmptyOpensMenu(t *testing.T) {
	role, err := roleFlag("")
	require.NoError(t, err)
	assert.Empty(t, role)

	h := newHeist(role, nil)
	assert.True(t, h.pickRole)
	assert.Equal(t, stage.Roles[0], h.session.Role)

	role, err = roleFlag("lookout")
	require.NoError(t, err)
	assert.False(t, newHeist(role, nil).pickRole)
}
