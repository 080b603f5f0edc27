package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SafeWalk/internal/cache"
	"SafeWalk/internal/model"
	"SafeWalk/internal/store/memstore"
	"SafeWalk/pkg/notify"
	"SafeWalk/pkg/snowflake"
	"SafeWalk/utils"
)

func TestMain(m *testing.M) {
	if err := snowflake.Init(1, 1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// capturePublisher 记录发布的事件，测试断言用
type capturePublisher struct {
	mu      sync.Mutex
	events  []model.AlertTriggeredEvent
	results []model.NotificationResultMessage
}

func (p *capturePublisher) PublishAlertTriggered(_ context.Context, ev model.AlertTriggeredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) PublishNotificationResult(_ context.Context, msg model.NotificationResultMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, msg)
	return nil
}

func (p *capturePublisher) Events() []model.AlertTriggeredEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AlertTriggeredEvent, len(p.events))
	copy(out, p.events)
	return out
}

type testEnv struct {
	store    *memstore.MemStore
	notifier *notify.MockClient
	events   *capturePublisher
	registry *TimerRegistry
	tracking cache.TrackingCache

	alerts   *AlertService
	duress   *DuressService
	sessions *SessionService
	trackSvc *TrackingService
	geofence *GeofenceService
	juris    *JurisdictionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memstore.New()
	notifier := notify.NewMockClient()
	events := &capturePublisher{}
	registry := NewTimerRegistry()
	tracking := cache.NewMemTrackingCache(time.Hour)

	juris := NewJurisdictionService(st)
	geofence := NewGeofenceService(st, cache.NewLocalCooldown(), notifier, 300*time.Second)
	fanout := NewFanout(notifier, events, 2*time.Second)
	alerts := NewAlertService(st, registry, fanout, events, juris)
	duress := NewDuressService(st, alerts)
	sessions := NewSessionService(st, geofence, tracking)
	trackSvc := NewTrackingService(st, tracking)

	return &testEnv{
		store:    st,
		notifier: notifier,
		events:   events,
		registry: registry,
		tracking: tracking,
		alerts:   alerts,
		duress:   duress,
		sessions: sessions,
		trackSvc: trackSvc,
		geofence: geofence,
		juris:    juris,
	}
}

func (e *testEnv) seedUser(t *testing.T, mainPassword, duressPassword string) *model.User {
	t.Helper()

	mainHash, err := utils.HashPassword(mainPassword)
	require.NoError(t, err)
	duressHash := ""
	if duressPassword != "" {
		duressHash, err = utils.HashPassword(duressPassword)
		require.NoError(t, err)
	}

	user := &model.User{
		PublicID:           time.Now().UnixNano(),
		Nickname:           "Alice",
		Status:             model.UserStatusActive,
		MainPasswordHash:   mainHash,
		DuressPasswordHash: duressHash,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) seedContact(t *testing.T, userID int64, name, phone string, priority int) *model.TrustedContact {
	t.Helper()

	cipher, err := utils.EncryptPhone(phone)
	require.NoError(t, err)
	hash := utils.HashPhone(phone)

	contact := &model.TrustedContact{
		UserID:      userID,
		Name:        name,
		PhoneCipher: cipher,
		PhoneHash:   &hash,
		Priority:    priority,
		IsActive:    true,
	}
	require.NoError(t, e.store.CreateContact(context.Background(), contact))
	return contact
}

func (e *testEnv) seedSession(t *testing.T, userID int64, mode model.SessionMode) *model.WalkSession {
	t.Helper()

	id, err := snowflake.NextID(snowflake.GeneratorTypeSession)
	require.NoError(t, err)

	session := &model.WalkSession{
		PublicID:  id,
		UserID:    userID,
		StartTime: time.Now(),
		Active:    true,
		Mode:      mode,
	}
	require.NoError(t, e.store.CreateSession(context.Background(), session))
	return session
}

func (e *testEnv) seedPendingAlert(t *testing.T, userID int64, alertType model.AlertType, confidence float64) *model.Alert {
	t.Helper()

	id, err := snowflake.NextID(snowflake.GeneratorTypeAlert)
	require.NoError(t, err)

	alert := &model.Alert{
		PublicID:   id,
		UserID:     userID,
		Type:       alertType,
		Confidence: confidence,
		Status:     model.AlertStatusPending,
	}
	require.NoError(t, e.store.CreateAlert(context.Background(), alert))
	return alert
}

func (e *testEnv) seedPendingAlertAt(t *testing.T, userID int64, alertType model.AlertType, confidence, lat, lng float64) *model.Alert {
	t.Helper()

	id, err := snowflake.NextID(snowflake.GeneratorTypeAlert)
	require.NoError(t, err)

	alert := &model.Alert{
		PublicID:   id,
		UserID:     userID,
		Type:       alertType,
		Confidence: confidence,
		Status:     model.AlertStatusPending,
		Latitude:   &lat,
		Longitude:  &lng,
	}
	require.NoError(t, e.store.CreateAlert(context.Background(), alert))
	return alert
}

func ptrFloat(v float64) *float64 { return &v }
