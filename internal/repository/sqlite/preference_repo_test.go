package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casdy/PlanR-sub000/internal/domain"
	"github.com/casdy/PlanR-sub000/internal/repository"
)

func TestPreferencesSeededWithDefaults(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))
	ctx := context.Background()

	prefs, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, prefs, 7)
	assert.Equal(t, "true", prefs[domain.PrefSoundEnabled])
	assert.Equal(t, "true", prefs[domain.PrefAutoAdvance])
	assert.Equal(t, "60", prefs[domain.PrefRestTimerSec])

	on, err := repo.GetBool(ctx, domain.PrefAutoAdvance)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestSetPreferenceOverwritesOnlyThatKey(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, domain.PrefTheme, "light"))

	theme, err := repo.Get(ctx, domain.PrefTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", theme)

	sound, err := repo.Get(ctx, domain.PrefSoundEnabled)
	require.NoError(t, err)
	assert.Equal(t, "true", sound, "other keys keep their defaults")
}

func TestGetUnknownPreference(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
