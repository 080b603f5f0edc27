package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"SafeWalk/config"
	"SafeWalk/internal/cache"
	"SafeWalk/internal/handler"
	"SafeWalk/internal/middleware"
	"SafeWalk/internal/queue"
	"SafeWalk/internal/router"
	"SafeWalk/internal/service"
	"SafeWalk/internal/store"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/metrics"
	"SafeWalk/pkg/notify"
	pkgotel "SafeWalk/pkg/otel"
	"SafeWalk/pkg/snowflake"
	"SafeWalk/pkg/token"
	"SafeWalk/storage"
	"SafeWalk/storage/database"
	"SafeWalk/storage/redis"
)

func main() {
	// 日志部分
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

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	// 初始化中间件
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	// OpenTelemetry，可选
	if config.Cfg.OTelEnabled {
		shutdown, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTLPEndpoint,
			SampleRatio:    config.Cfg.OTelSampler,
		})
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
				}
			}()
		}
	}
	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize business metrics", zap.Error(err))
	}
	if err := middleware.InitMetrics(otel.Meter("safewalk-http")); err != nil {
		logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
	}

	// 通知客户端不可用时降级到 mock，告警链路不能因为短信网关挂了而无法启动
	notifyClient, err := notify.New()
	if err != nil {
		logger.Logger.Warn("Failed to initialize notify client, falling back to mock", zap.Error(err))
		notifyClient = notify.NewMockClient()
	}

	// 组装依赖
	st := store.NewGormStore(database.DB())
	registry := service.NewTimerRegistry()
	producer := queue.NewProducer()
	fanout := service.NewFanout(notifyClient, producer,
		time.Duration(config.Cfg.NotifyRecipientTimeout)*time.Second)
	juris := service.NewJurisdictionService(st)
	alerts := service.NewAlertService(st, registry, fanout, producer, juris)

	cooldown := cache.NewRedisCooldown(redis.Client(), config.Cfg.RedisPrefix)
	geofence := service.NewGeofenceService(st, cooldown, notifyClient,
		time.Duration(config.Cfg.GeofenceCooldownSeconds)*time.Second)
	tracking := cache.NewRedisTrackingCache(redis.Client(), config.Cfg.RedisPrefix, 10*time.Minute)

	sessions := service.NewSessionService(st, geofence, tracking)
	duress := service.NewDuressService(st, alerts)
	trackSvc := service.NewTrackingService(st, tracking)
	geo := service.NewGeoService(st)
	contacts := service.NewContactService(st)
	users := service.NewUserService(st)

	// 启动恢复必须在对外服务前完成：
	// 过期倒计时立即触发，未过期的按剩余时长重建进程内定时器
	recoverCtx, recoverCancel := context.WithTimeout(ctx,
		time.Duration(config.Cfg.AlertRecoveryTimeout)*time.Second)
	recovered, err := alerts.RecoverOnStartup(recoverCtx)
	recoverCancel()
	if err != nil {
		logger.Logger.Fatal("Failed to recover pending countdowns", zap.Error(err))
	}
	logger.Logger.Info("Countdown recovery completed", zap.Int("recovered", recovered))

	handlers := handler.New(alerts, sessions, duress, trackSvc, geo, contacts, users)

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	serverOpts := []hertzconfig.Option{server.WithHostPorts(addr)}

	// 追踪开启时挂上 Hertz server tracer 与配套中间件
	var tracerMW app.HandlerFunc
	if config.Cfg.OTelEnabled {
		tracerOpt, mw := middleware.NewServerTracerConfig()
		serverOpts = append(serverOpts, tracerOpt)
		tracerMW = mw
	}

	h := server.Default(serverOpts...)
	if tracerMW != nil {
		h.Use(tracerMW)
	}

	router.Register(h, handlers)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
