package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/model"
	"SafeWalk/internal/service"
)

func TestToGeofenceEventExitedWithoutLocation(t *testing.T) {
	// 用户在所有安全区之外触发 auto-start 时，决策不携带所在安全区
	ev := toGeofenceEvent(&service.GeofenceDecision{
		Event:           service.GeofenceEventExited,
		ShouldAutoStart: true,
	})

	require.NotNil(t, ev)
	assert.Equal(t, service.GeofenceEventExited, ev.Event)
	assert.True(t, ev.WalkStarted)
	assert.False(t, ev.WalkStopped)
	assert.Zero(t, ev.SafeLocationID)
	assert.Empty(t, ev.Name)
}

func TestToGeofenceEventEntered(t *testing.T) {
	loc := &model.SafeLocation{Name: "Home", Latitude: 52.52, Longitude: 13.405, RadiusMeters: 100}
	loc.ID = 42

	ev := toGeofenceEvent(&service.GeofenceDecision{
		Event:          service.GeofenceEventEntered,
		Location:       loc,
		ShouldAutoStop: true,
	})

	require.NotNil(t, ev)
	assert.Equal(t, int64(42), ev.SafeLocationID)
	assert.Equal(t, "Home", ev.Name)
	assert.True(t, ev.WalkStopped)
}

func TestToGeofenceEventSuppressed(t *testing.T) {
	assert.Nil(t, toGeofenceEvent(&service.GeofenceDecision{
		Event:      service.GeofenceEventExited,
		Suppressed: true,
	}))
	assert.Nil(t, toGeofenceEvent(nil))
}

func TestToSessionDataSilentProjection(t *testing.T) {
	now := time.Now()
	s := &model.WalkSession{
		PublicID:  7,
		UserID:    1,
		StartTime: now.Add(-time.Hour),
		Active:    true,
		Mode:      model.SessionModeSilent,
	}
	s.UpdatedAt = now

	data := toSessionData(s)
	require.NotNil(t, data)
	assert.False(t, data.Active)
	assert.Equal(t, string(model.SessionModeManual), data.Mode)
	require.NotNil(t, data.EndTime)
	assert.Equal(t, now, *data.EndTime)
}
