package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store/memstore"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/notify"
)

func TestStopWalkWithMainPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "duress-pass")
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	stopped, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{
		Password: "main-pass",
	})
	require.NoError(t, err)
	assert.False(t, stopped.Active)
	assert.NotNil(t, stopped.EndTime)
	assert.Equal(t, model.SessionModeManual, stopped.Mode)
	assert.Empty(t, env.events.Events())
}

func TestStopWalkWithDuressPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "duress-pass")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	stopped, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{
		Password:  "duress-pass",
		Latitude:  ptrFloat(52.52),
		Longitude: ptrFloat(13.405),
	})
	require.NoError(t, err)

	// 后端真实状态：会话继续活跃，只是转入静默
	assert.True(t, stopped.Active)
	assert.Nil(t, stopped.EndTime)
	assert.Equal(t, model.SessionModeSilent, stopped.Mode)
	// 对外投影看起来已结束
	assert.True(t, stopped.LooksStopped())

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].IsDuress)

	alert, err := env.store.GetAlert(ctx, events[0].AlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusTriggered, alert.Status)
	assert.Equal(t, 1.0, alert.Confidence)
	require.NotNil(t, alert.LiveTrackingToken)
	assert.Len(t, *alert.LiveTrackingToken, 64)

	// 联系人收到追踪链接和不要回拨的提示，投递在后台完成
	require.Eventually(t, func() bool {
		return len(env.notifier.CallsByChannel(notify.ChannelWhatsApp)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	calls := env.notifier.CallsByChannel(notify.ChannelWhatsApp)
	assert.Contains(t, calls[0].Text, *alert.LiveTrackingToken)
	assert.True(t, strings.Contains(calls[0].Text, "Do NOT call"))
}

// slowNotifier 给 WhatsApp 通道加固定时延，模拟慢速网关
type slowNotifier struct {
	*notify.MockClient
	delay time.Duration
}

func (s *slowNotifier) SendWhatsApp(ctx context.Context, phone, text string) error {
	time.Sleep(s.delay)
	return s.MockClient.SendWhatsApp(ctx, phone, text)
}

func TestStopWalkDuressNotDelayedByDelivery(t *testing.T) {
	st := memstore.New()
	slow := &slowNotifier{MockClient: notify.NewMockClient(), delay: 500 * time.Millisecond}
	events := &capturePublisher{}
	registry := NewTimerRegistry()
	juris := NewJurisdictionService(st)
	fanout := NewFanout(slow, events, 2*time.Second)
	alerts := NewAlertService(st, registry, fanout, events, juris)

	env := &testEnv{
		store:    st,
		notifier: slow.MockClient,
		events:   events,
		registry: registry,
		alerts:   alerts,
		duress:   NewDuressService(st, alerts),
	}

	user := env.seedUser(t, "main-pass", "duress-pass")
	env.seedContact(t, user.ID, "Bob", "+4917600000001", 1)
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	// 胁迫停止的耗时不能暴露投递链路：网关再慢，响应也要和普通停止一样快
	start := time.Now()
	stopped, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{
		Password: "duress-pass",
	})
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.True(t, stopped.LooksStopped())
	assert.Less(t, elapsed, 200*time.Millisecond)

	// 告警状态在请求内就已赢下，通知随后到达
	events1 := env.events.Events()
	require.Len(t, events1, 1)
	alert, err := st.GetAlert(ctx, events1[0].AlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusTriggered, alert.Status)

	require.Eventually(t, func() bool {
		return len(env.notifier.CallsByChannel(notify.ChannelWhatsApp)) == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStopWalkMainPasswordUnlocksSilent(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "duress-pass")
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	_, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "duress-pass"})
	require.NoError(t, err)

	// 静默中输入主密码即 I am safe 解锁，历史保留 SILENT
	unlocked, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "main-pass"})
	require.NoError(t, err)
	assert.False(t, unlocked.Active)
	assert.NotNil(t, unlocked.EndTime)
	assert.Equal(t, model.SessionModeSilent, unlocked.Mode)
}

func TestStopWalkDuressWhileAlreadySilent(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "duress-pass")
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	_, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "duress-pass"})
	require.NoError(t, err)
	require.Len(t, env.events.Events(), 1)

	// 已静默时再次使用胁迫密码不产生第二个告警
	again, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "duress-pass"})
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.Len(t, env.events.Events(), 1)
}

func TestStopWalkWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "duress-pass")
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	_, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "nope"})
	assert.ErrorIs(t, err, pkgerrors.PasswordInvalid)

	reloaded, err := env.store.GetSession(ctx, session.PublicID)
	require.NoError(t, err)
	assert.True(t, reloaded.Active)
	assert.Equal(t, model.SessionModeManual, reloaded.Mode)
}

func TestStopWalkInactiveSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "main-pass", "")
	session := env.seedSession(t, user.ID, model.SessionModeManual)
	ctx := context.Background()

	_, err := env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "main-pass"})
	require.NoError(t, err)

	_, err = env.duress.StopWalk(ctx, user.ID, session.PublicID, dto.StopWalkRequest{Password: "main-pass"})
	assert.ErrorIs(t, err, pkgerrors.SessionNotActive)
}
