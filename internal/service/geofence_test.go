package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/model"
	"SafeWalk/pkg/notify"
)

func TestHaversineKnownDistance(t *testing.T) {
	// 柏林电视塔到勃兰登堡门约 2.1km
	d := Haversine(52.5208, 13.4094, 52.5163, 13.3777)
	assert.InDelta(t, 2200, d, 150)
}

func TestContainsBoundaryInclusive(t *testing.T) {
	// 边界点算在内，半径再缩 1 米就在外
	d := Haversine(0, 0, 0, 0.001)
	assert.True(t, Contains(0, 0.001, 0, 0, d))
	assert.False(t, Contains(0, 0.001, 0, 0, d-1))
}

func seedSafeLocation(t *testing.T, env *testEnv, userID int64, name string, lat, lng, radius float64, autoStart, autoStop bool) *model.SafeLocation {
	t.Helper()
	loc := &model.SafeLocation{
		UserID:        userID,
		Name:          name,
		Latitude:      lat,
		Longitude:     lng,
		RadiusMeters:  radius,
		AutoStartWalk: autoStart,
		AutoStopWalk:  autoStop,
		IsActive:      true,
	}
	require.NoError(t, env.store.CreateSafeLocation(context.Background(), loc))
	return loc
}

func TestEvaluateLocationInsideAndOutside(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, true, false)
	ctx := context.Background()

	// 约 89m，圈内
	inside, err := env.geofence.EvaluateLocation(ctx, user.ID, 0.0008, 0)
	require.NoError(t, err)
	assert.Equal(t, GeofenceEventEntered, inside.Event)
	require.NotNil(t, inside.Location)
	assert.Equal(t, "Home", inside.Location.Name)
	assert.False(t, inside.ShouldAutoStart)

	// 约 222m，圈外，无活跃会话且配置了 auto_start，给出自动开始信号
	outside, err := env.geofence.EvaluateLocation(ctx, user.ID, 0.002, 0)
	require.NoError(t, err)
	assert.Equal(t, GeofenceEventExited, outside.Event)
	assert.Nil(t, outside.Location)
	assert.True(t, outside.ShouldAutoStart)
}

func TestEvaluateLocationNearestOnOverlap(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Cafe", 0, 0, 150, false, false)
	seedSafeLocation(t, env, user.ID, "Office", 0.001, 0, 150, false, false)
	ctx := context.Background()

	// 点同时落在两个圈内，取中心更近的 Office
	decision, err := env.geofence.EvaluateLocation(ctx, user.ID, 0.0008, 0)
	require.NoError(t, err)
	require.NotNil(t, decision.Location)
	assert.Equal(t, "Office", decision.Location.Name)
}

func TestEvaluateLocationCooldownSuppression(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, false, false)
	ctx := context.Background()

	first, err := env.geofence.EvaluateLocation(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.False(t, first.Suppressed)

	// 冷却窗口内重复的同类事件被压制
	second, err := env.geofence.EvaluateLocation(ctx, user.ID, 0.0001, 0)
	require.NoError(t, err)
	assert.True(t, second.Suppressed)
}

func TestAutoStartNotifiesContactOncePerWindow(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	env.seedContact(t, user.ID, "Carol", "+4917600000002", 2)
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, true, false)
	ctx := context.Background()

	first, err := env.geofence.EvaluateLocation(ctx, user.ID, 0.002, 0)
	require.NoError(t, err)
	require.True(t, first.ShouldAutoStart)
	assert.False(t, first.Suppressed)

	// 冷却窗口内 GPS 抖动再次上报同一事件，被压制后不再外发
	second, err := env.geofence.EvaluateLocation(ctx, user.ID, 0.0021, 0)
	require.NoError(t, err)
	require.True(t, second.ShouldAutoStart)
	assert.True(t, second.Suppressed)

	calls := env.notifier.CallsByChannel(notify.ChannelSMS)
	require.Len(t, calls, 1)
	// 通知第一优先级联系人
	assert.Equal(t, "+4917600000001", calls[0].Phone)
	assert.Contains(t, calls[0].Text, "started automatically")
}

func TestAutoStopNotifiesContactWithLocationName(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, false, true)
	env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	decision, err := env.geofence.EvaluateLocation(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	require.True(t, decision.ShouldAutoStop)

	calls := env.notifier.CallsByChannel(notify.ChannelSMS)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Text, "arrived at Home")
}

func TestPlainEnterExitDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, false, false)
	ctx := context.Background()

	// 没有自动动作的进出事件不打扰联系人
	_, err := env.geofence.EvaluateLocation(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	_, err = env.geofence.EvaluateLocation(ctx, user.ID, 0.002, 0)
	require.NoError(t, err)

	assert.Empty(t, env.notifier.Calls)
}

func TestEvaluateLocationAutoStopSignals(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, false, true)
	ctx := context.Background()

	env.seedSession(t, user.ID, model.SessionModeManual)
	decision, err := env.geofence.EvaluateLocation(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.True(t, decision.ShouldAutoStop)
}

func TestEvaluateLocationSilentSessionNotAutoStopped(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	seedSafeLocation(t, env, user.ID, "Home", 0, 0, 100, false, true)
	ctx := context.Background()

	// 静默会话不能被围栏自动结束，否则胁迫监控被关掉
	env.seedSession(t, user.ID, model.SessionModeSilent)
	decision, err := env.geofence.EvaluateLocation(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.False(t, decision.ShouldAutoStop)
}

func TestJurisdictionMatchAllOverlapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, a := range []*model.GovAuthority{
		{OwnerID: 1, Name: "North", Latitude: 0, Longitude: 0, RadiusMeters: 5000, IsActive: true},
		{OwnerID: 1, Name: "South", Latitude: 0.01, Longitude: 0, RadiusMeters: 5000, IsActive: true},
		{OwnerID: 1, Name: "Remote", Latitude: 10, Longitude: 10, RadiusMeters: 5000, IsActive: true},
		{OwnerID: 1, Name: "Disabled", Latitude: 0, Longitude: 0, RadiusMeters: 5000, IsActive: false},
	} {
		require.NoError(t, env.store.CreateAuthority(ctx, a))
	}

	matched, err := env.juris.Match(ctx, 0.005, 0)
	require.NoError(t, err)

	names := make([]string, 0, len(matched))
	for _, a := range matched {
		names = append(names, a.Name)
	}
	// 重叠辖区全部命中，不做单一归属
	assert.ElementsMatch(t, []string{"North", "South"}, names)
}
