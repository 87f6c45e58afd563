package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/codecrafters"
)

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "useradd", "seed", "version"}, names)
}

func TestSeedIsIdempotent(t *testing.T) {
	store, err := codecrafters.NewStore(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, seed(ctx, store))
	require.NoError(t, seed(ctx, store))

	slugs, err := store.ListChallengeSlugs(ctx)
	require.NoError(t, err)
	assert.Len(t, slugs, len(demoChallenges))

	solutions, err := store.ListSolutions(ctx)
	require.NoError(t, err)
	assert.Len(t, solutions, len(demoChallenges))

	ada, err := store.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.NotEmpty(t, ada.PasswordHash)
}

func TestUserAddRequiresUsername(t *testing.T) {
	cmd := userAddCmd()
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

func TestPasswordWarnsOnDefault(t *testing.T) {
	t.Setenv("CODECRAFTERS_PASSWORD", "")
	var stderr bytes.Buffer
	assert.Equal(t, "changeme", password(&stderr))
	assert.Contains(t, stderr.String(), "CODECRAFTERS_PASSWORD is not set")

	t.Setenv("CODECRAFTERS_PASSWORD", "hunter22")
	stderr.Reset()
	assert.Equal(t, "hunter22", password(&stderr))
	assert.Empty(t, stderr.String())
}

func TestUserAddWarnsWithoutPassword(t *testing.T) {
	t.Setenv("CODECRAFTERS_PASSWORD", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "users.db"))

	var stdout, stderr bytes.Buffer
	cmd := userAddCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"ada"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderr.String(), `using the default password "changeme"`)
}
