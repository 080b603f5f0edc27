package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/cache"
	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	pkgerrors "SafeWalk/pkg/errors"
)

// 完整胁迫链路：停止 -> 静默 -> 追踪可读 -> 主密码解锁 -> token 失效
func TestLiveTrackingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "duress-pass")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	_, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{
		Password:  "duress-pass",
		Latitude:  ptrFloat(52.52),
		Longitude: ptrFloat(13.405),
	})
	require.NoError(t, err)

	events := env.events.Events()
	require.Len(t, events, 1)
	alert, err := env.store.GetAlert(ctx, events[0].AlertID)
	require.NoError(t, err)
	require.NotNil(t, alert.LiveTrackingToken)
	token := *alert.LiveTrackingToken

	data, err := env.trackSvc.GetLiveTracking(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, string(model.AlertStatusTriggered), data.Status)
	require.NotNil(t, data.Latitude)
	assert.Equal(t, 52.52, *data.Latitude)

	// 实时缓存更新后追踪页读到新位置
	require.NoError(t, env.tracking.SetPosition(ctx, user.ID, cache.LivePosition{
		Latitude:  52.53,
		Longitude: 13.41,
	}))
	data, err = env.trackSvc.GetLiveTracking(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 52.53, *data.Latitude)

	// 主密码解锁后会话离开 SILENT+active，token 立即按状态吊销
	_, err = env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "main-pass"})
	require.NoError(t, err)

	_, err = env.trackSvc.GetLiveTracking(ctx, token)
	assert.ErrorIs(t, err, pkgerrors.TrackingTokenInvalid)
}

func TestLiveTrackingUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.trackSvc.GetLiveTracking(ctx, "deadbeef")
	assert.ErrorIs(t, err, pkgerrors.TrackingTokenInvalid)
}
