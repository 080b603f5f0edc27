// Package schedule 兜底补偿扫描
// 进程内定时器可能因崩溃丢失，扫描把漏触发的倒计时补上
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SafeWalk/internal/service"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/logger"
)

type AlertScheduler struct {
	cron   *cron.Cron
	store  store.Store
	alerts *service.AlertService
}

func NewAlertScheduler(st store.Store, alerts *service.AlertService) *AlertScheduler {
	return &AlertScheduler{
		cron:   cron.New(),
		store:  st,
		alerts: alerts,
	}
}

// Start 每分钟扫描一次超期未触发的 pending 告警
func (s *AlertScheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.sweepOverdue); err != nil {
		return err
	}
	s.cron.Start()
	logger.Logger.Info("Alert compensation scheduler started")
	return nil
}

func (s *AlertScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *AlertScheduler) sweepOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 留出一个检查间隔的余量，避免和进程内定时器抢同一批
	overdue, err := s.store.ListOverduePending(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		logger.Logger.Error("Failed to list overdue pending alerts", zap.Error(err))
		return
	}
	if len(overdue) == 0 {
		return
	}

	triggered := 0
	for _, alert := range overdue {
		if err := s.alerts.Trigger(ctx, alert.PublicID, true); err != nil {
			// 撤销方或别的实例先赢了 CAS，不算失败
			if errors.Is(err, pkgerrors.AlertNotPending) {
				continue
			}
			logger.Logger.Error("Failed to trigger overdue alert",
				zap.Int64("alert_id", alert.PublicID),
				zap.Error(err),
			)
			continue
		}
		triggered++
	}

	logger.Logger.Warn("Compensation sweep triggered overdue alerts",
		zap.Int("overdue", len(overdue)),
		zap.Int("triggered", triggered),
	)
}
