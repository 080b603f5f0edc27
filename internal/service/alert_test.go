package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/notify"
)

func TestCreateAlertStartsCountdownExactDuration(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	alert, below, err := env.alerts.CreateAlert(ctx, user.ID, dto.CreateAlertRequest{
		Type:       string(model.AlertTypeScream),
		Confidence: 0.95,
	})
	require.NoError(t, err)
	assert.False(t, below)
	assert.Equal(t, model.AlertStatusPending, alert.Status)

	require.NotNil(t, alert.CountdownStartedAt)
	require.NotNil(t, alert.CountdownExpiresAt)
	assert.Equal(t, env.alerts.defaultCountdown, alert.CountdownExpiresAt.Sub(*alert.CountdownStartedAt))
	assert.True(t, env.registry.Contains(alert.PublicID))

	env.registry.Cancel(alert.PublicID)
}

func TestCreateAlertBelowThresholdStaysInert(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	alert, below, err := env.alerts.CreateAlert(ctx, user.ID, dto.CreateAlertRequest{
		Type:       string(model.AlertTypeSoundAnomaly),
		Confidence: 0.5,
	})
	require.NoError(t, err)
	assert.True(t, below)
	assert.Equal(t, model.AlertStatusPending, alert.Status)
	assert.Nil(t, alert.CountdownStartedAt)
	assert.Equal(t, 0, env.registry.Outstanding())
}

func TestCreateAlertValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.CreateAlertRequest
		want pkgerrors.Definition
	}{
		{"unknown type", dto.CreateAlertRequest{Type: "earthquake", Confidence: 0.9}, pkgerrors.AlertTypeInvalid},
		{"confidence above one", dto.CreateAlertRequest{Type: "scream", Confidence: 1.5}, pkgerrors.ConfidenceOutOfRange},
		{"confidence negative", dto.CreateAlertRequest{Type: "scream", Confidence: -0.1}, pkgerrors.ConfidenceOutOfRange},
		{"duress without coords", dto.CreateAlertRequest{Type: "duress", Confidence: 1}, pkgerrors.CoordinatesRequired},
		{"latitude out of range", dto.CreateAlertRequest{Type: "scream", Confidence: 0.9, Latitude: ptrFloat(91), Longitude: ptrFloat(0)}, pkgerrors.CoordinateInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.alerts.CreateAlert(ctx, user.ID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateAlertInstantSOS(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	ctx := context.Background()

	alert, below, err := env.alerts.CreateAlert(ctx, user.ID, dto.CreateAlertRequest{
		Type:       string(model.AlertTypeSOS),
		Confidence: 0,
	})
	require.NoError(t, err)
	assert.False(t, below)
	assert.Equal(t, model.AlertStatusTriggered, alert.Status)
	assert.Equal(t, 1.0, alert.Confidence)
	assert.NotNil(t, alert.TriggeredAt)
	assert.Equal(t, 0, env.registry.Outstanding())

	// 即时触发不经过倒计时，扇出在后台完成后联系人收到通知
	require.Eventually(t, func() bool {
		return len(env.notifier.CallsByChannel(notify.ChannelWhatsApp)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	calls := env.notifier.CallsByChannel(notify.ChannelWhatsApp)
	assert.Equal(t, "+4917600000001", calls[0].Phone)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Recovered)
}

func TestCancelBeforeExpiry(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	ctx := context.Background()

	alert := env.seedPendingAlert(t, user.ID, model.AlertTypeFall, 0.9)
	require.NoError(t, env.alerts.StartCountdown(ctx, alert.PublicID, 150*time.Millisecond))

	cancelled, err := env.alerts.CancelAlert(ctx, user.ID, alert.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// 定时器已撤销，等过原到期点也不会触发
	time.Sleep(300 * time.Millisecond)
	reloaded, err := env.store.GetAlert(ctx, alert.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusCancelled, reloaded.Status)
	assert.Empty(t, env.notifier.Calls)
}

func TestCancelAfterExpiryLosesRace(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	alert := env.seedPendingAlert(t, user.ID, model.AlertTypeDistress, 0.9)
	require.NoError(t, env.alerts.StartCountdown(ctx, alert.PublicID, 30*time.Millisecond))

	require.Eventually(t, func() bool {
		a, err := env.store.GetAlert(ctx, alert.PublicID)
		return err == nil && a.Status == model.AlertStatusTriggered
	}, 2*time.Second, 10*time.Millisecond)

	_, err := env.alerts.CancelAlert(ctx, user.ID, alert.PublicID)
	assert.ErrorIs(t, err, pkgerrors.AlertNotPending)

	reloaded, err := env.store.GetAlert(ctx, alert.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusTriggered, reloaded.Status)
}

func TestStartCountdownTwice(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	alert := env.seedPendingAlert(t, user.ID, model.AlertTypePanic, 0.9)
	require.NoError(t, env.alerts.StartCountdown(ctx, alert.PublicID, time.Hour))
	assert.ErrorIs(t, env.alerts.StartCountdown(ctx, alert.PublicID, time.Hour), pkgerrors.CountdownAlreadyStarted)
	assert.Equal(t, 1, env.registry.Outstanding())

	env.registry.Cancel(alert.PublicID)
}

func TestTriggerFallsBackAcrossChannels(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	env.notifier.FailChannels[notify.ChannelWhatsApp] = nil
	ctx := context.Background()

	alert := env.seedPendingAlert(t, user.ID, model.AlertTypeScream, 0.9)
	require.NoError(t, env.alerts.Trigger(ctx, alert.PublicID, false))

	require.Eventually(t, func() bool {
		return len(env.notifier.CallsByChannel(notify.ChannelSMS)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, env.notifier.CallsByChannel(notify.ChannelWhatsApp), 1)
	assert.Empty(t, env.notifier.CallsByChannel(notify.ChannelVoice))
}

func TestTriggerAllChannelsFailStillTriggered(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	env.notifier.FailChannels[notify.ChannelWhatsApp] = nil
	env.notifier.FailChannels[notify.ChannelSMS] = nil
	env.notifier.FailChannels[notify.ChannelVoice] = nil
	ctx := context.Background()

	alert := env.seedPendingAlert(t, user.ID, model.AlertTypeScream, 0.9)
	require.NoError(t, env.alerts.Trigger(ctx, alert.PublicID, false))

	// 投递全部失败也不回滚状态
	require.Eventually(t, func() bool {
		return len(env.notifier.CallsByChannel(notify.ChannelVoice)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	reloaded, err := env.store.GetAlert(ctx, alert.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusTriggered, reloaded.Status)
}

func TestTriggerNotifiesMatchedAuthority(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	require.NoError(t, env.store.CreateAuthority(ctx, &model.GovAuthority{
		OwnerID:      999,
		Name:         "District Watch",
		Latitude:     52.52,
		Longitude:    13.405,
		RadiusMeters: 5000,
		ContactPhone: "+4930110",
		IsActive:     true,
	}))
	// 辖区在别处的机构不应被通知
	require.NoError(t, env.store.CreateAuthority(ctx, &model.GovAuthority{
		OwnerID:      999,
		Name:         "Far Away",
		Latitude:     48.13,
		Longitude:    11.58,
		RadiusMeters: 5000,
		ContactPhone: "+4989110",
		IsActive:     true,
	}))

	alert := env.seedPendingAlertAt(t, user.ID, model.AlertTypeFall, 0.9, 52.521, 13.406)
	require.NoError(t, env.alerts.Trigger(ctx, alert.PublicID, false))

	require.Eventually(t, func() bool {
		return len(env.notifier.CallsByChannel(notify.ChannelWhatsApp)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	calls := env.notifier.CallsByChannel(notify.ChannelWhatsApp)
	assert.Equal(t, "+4930110", calls[0].Phone)
}

func TestMarkSafe(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	ctx := context.Background()

	alert := env.seedPendingAlert(t, user.ID, model.AlertTypeFall, 0.9)

	_, err := env.alerts.MarkSafe(ctx, user.ID, alert.PublicID)
	assert.ErrorIs(t, err, pkgerrors.AlertNotTriggered)

	require.NoError(t, env.alerts.Trigger(ctx, alert.PublicID, false))
	safe, err := env.alerts.MarkSafe(ctx, user.ID, alert.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusSafe, safe.Status)
}

func TestRecoverOnStartup(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	ctx := context.Background()

	now := time.Now()

	// 到期时间在过去：恢复时立即触发
	expired := env.seedPendingAlert(t, user.ID, model.AlertTypeScream, 0.9)
	pastStart := now.Add(-35 * time.Second)
	pastExpiry := now.Add(-5 * time.Second)
	ok, err := env.store.SetAlertCountdown(ctx, expired.PublicID, pastStart, pastExpiry)
	require.NoError(t, err)
	require.True(t, ok)

	// 到期时间在未来：按剩余时长重新注册
	future := env.seedPendingAlert(t, user.ID, model.AlertTypeFall, 0.9)
	ok, err = env.store.SetAlertCountdown(ctx, future.PublicID, now, now.Add(150*time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)

	// 从未启动倒计时的记录属于数据异常，跳过不触发
	inert := env.seedPendingAlert(t, user.ID, model.AlertTypeSoundAnomaly, 0.5)

	recovered, err := env.alerts.RecoverOnStartup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, recovered)

	a, err := env.store.GetAlert(ctx, expired.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusTriggered, a.Status)

	a, err = env.store.GetAlert(ctx, future.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusPending, a.Status)
	require.Eventually(t, func() bool {
		a, err := env.store.GetAlert(ctx, future.PublicID)
		return err == nil && a.Status == model.AlertStatusTriggered
	}, 2*time.Second, 10*time.Millisecond)

	a, err = env.store.GetAlert(ctx, inert.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusPending, a.Status)

	events := env.events.Events()
	require.NotEmpty(t, events)
	assert.True(t, events[0].Recovered)
}
