package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	pkgerrors "SafeWalk/pkg/errors"
)

func TestStartWalkOnlyOneActive(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	first, err := env.sessions.StartWalk(ctx, user.ID, dto.StartWalkRequest{})
	require.NoError(t, err)
	assert.True(t, first.Active)
	assert.Equal(t, model.SessionModeManual, first.Mode)

	_, err = env.sessions.StartWalk(ctx, user.ID, dto.StartWalkRequest{})
	assert.ErrorIs(t, err, pkgerrors.SessionAlreadyActive)
}

func TestUpdateLocationAutoStartsWalk(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, true, false)
	ctx := context.Background()

	// 离开安全区且无活跃会话，自动开走
	session, decision, err := env.sessions.UpdateLocation(ctx, user.ID, dto.LocationUpdateRequest{
		Latitude:  0.002,
		Longitude: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.True(t, decision.ShouldAutoStart)
	require.NotNil(t, session)
	assert.True(t, session.Active)
	assert.Equal(t, model.SessionModeAutoGeofence, session.Mode)
	assert.True(t, session.StartedByGeofence)
}

func TestUpdateLocationAutoStopsWalk(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, false, true)
	env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	session, decision, err := env.sessions.UpdateLocation(ctx, user.ID, dto.LocationUpdateRequest{
		Latitude:  0.0001,
		Longitude: 0,
	})
	require.NoError(t, err)
	assert.True(t, decision.ShouldAutoStop)
	require.NotNil(t, session)
	assert.False(t, session.Active)
	assert.NotNil(t, session.EndTime)
}

func TestUpdateLocationRefreshesSessionAndCache(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seeded := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	_, _, err := env.sessions.UpdateLocation(ctx, user.ID, dto.LocationUpdateRequest{
		Latitude:  52.52,
		Longitude: 13.405,
	})
	require.NoError(t, err)

	reloaded, err := env.store.GetSession(ctx, seeded.PublicID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLatitude)
	assert.Equal(t, 52.52, *reloaded.LastLatitude)

	pos, err := env.tracking.GetPosition(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 52.52, pos.Latitude)
	assert.Equal(t, 13.405, pos.Longitude)
}

func TestUpdateLocationRejectsBadCoordinates(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	_, _, err := env.sessions.UpdateLocation(ctx, user.ID, dto.LocationUpdateRequest{
		Latitude:  120,
		Longitude: 0,
	})
	assert.ErrorIs(t, err, pkgerrors.CoordinateInvalid)
}
