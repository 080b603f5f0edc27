package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"SafeWalk/config"
	"SafeWalk/internal/queue"
	"SafeWalk/internal/schedule"
	"SafeWalk/internal/service"
	"SafeWalk/internal/store"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/notify"
	"SafeWalk/pkg/snowflake"
	"SafeWalk/storage"
	"SafeWalk/storage/database"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	// 补偿扫描触发的告警同样要走完整的通知扇出
	notifyClient, err := notify.New()
	if err != nil {
		logger.Logger.Warn("Failed to initialize notify client, falling back to mock", zap.Error(err))
		notifyClient = notify.NewMockClient()
	}

	st := store.NewGormStore(database.DB())
	registry := service.NewTimerRegistry()
	producer := queue.NewProducer()
	fanout := service.NewFanout(notifyClient, producer,
		time.Duration(config.Cfg.NotifyRecipientTimeout)*time.Second)
	juris := service.NewJurisdictionService(st)
	alerts := service.NewAlertService(st, registry, fanout, producer, juris)

	scheduler := schedule.NewAlertScheduler(st, alerts)
	if err := scheduler.Start(); err != nil {
		logger.Logger.Fatal("Failed to start alert scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", "safewalk-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	<-ctx.Done()

	scheduler.Stop()
	logger.Logger.Info("Scheduler service shutting down gracefully")
}
