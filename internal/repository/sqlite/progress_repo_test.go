package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleProgressFlips(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))
	ctx := context.Background()

	on, err := repo.Toggle(ctx, "p1", "d1", 0)
	require.NoError(t, err)
	assert.True(t, on, "first toggle turns the flag on")

	off, err := repo.Toggle(ctx, "p1", "d1", 0)
	require.NoError(t, err)
	assert.False(t, off, "second toggle turns it back off")
}

func TestToggleProgressIsKeyedPerExercise(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Toggle(ctx, "p1", "d1", 0)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, "p1", "d1", 2)
	require.NoError(t, err)

	flags, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"p1-d1-0": true,
		"p1-d1-2": true,
	}, flags)
}
