package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"SafeWalk/config"
	"SafeWalk/pkg/logger"
)

// ErrChannelUnsupported 当前 provider 不支持该通道时返回，调用方按通道降级处理
var ErrChannelUnsupported = errors.New("notify channel not supported by provider")

// Channel 通知通道
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelVoice    Channel = "voice"
)

// Client 通知客户端接口，每次调用无状态
// 降级链（WhatsApp -> SMS -> 外呼）由调用方负责
type Client interface {
	SendWhatsApp(ctx context.Context, phone, text string) error
	SendSMS(ctx context.Context, phone, text string) error
	SendVoiceCall(ctx context.Context, phone, text string) error
}

// New 根据配置创建通知客户端
func New() (Client, error) {
	cfg := config.Cfg

	switch cfg.NotifyProvider {
	case "aliyun":
		client, err := NewAliyunClient()
		if err != nil {
			return nil, err
		}
		logger.Logger.Info("Notify client initialized successfully",
			zap.String("provider", cfg.NotifyProvider),
		)
		return client, nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported notify provider: %s", cfg.NotifyProvider)
	}
}
