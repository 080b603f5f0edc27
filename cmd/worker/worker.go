package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"SafeWalk/config"
	"SafeWalk/internal/queue"
	"SafeWalk/internal/store"
	"SafeWalk/pkg/logger"
	"SafeWalk/storage"
	"SafeWalk/storage/database"
	"SafeWalk/storage/mq"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	handlers := queue.NewHandlers(store.NewGormStore(database.DB()))

	logger.Logger.Info("Worker service starting",
		zap.String("service", "safewalk-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	var wg sync.WaitGroup

	consumers := []mq.ConsumeOptions{
		{
			Queue:         mq.AlertTriggeredQueue,
			ConsumerTag:   "safewalk-worker-alerts",
			PrefetchCount: 10,
			Handler:       handlers.HandleAlertTriggered,
		},
		{
			Queue:         mq.NotificationResultQueue,
			ConsumerTag:   "safewalk-worker-results",
			PrefetchCount: 50,
			Handler:       handlers.HandleNotificationResult,
		},
	}

	for _, opts := range consumers {
		wg.Add(1)
		go func(opts mq.ConsumeOptions) {
			defer wg.Done()
			if err := mq.Consume(opts); err != nil {
				logger.Logger.Error("Consumer exited",
					zap.String("queue", opts.Queue),
					zap.Error(err),
				)
			}
		}(opts)
	}

	<-ctx.Done()

	// storage.Close 会关闭 MQ 连接，消费循环随投递通道关闭而退出
	logger.Logger.Info("Worker service shutting down gracefully")
	storage.Close()
	wg.Wait()
}
