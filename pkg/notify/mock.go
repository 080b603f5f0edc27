package notify

import (
	"context"
	"errors"
	"sync"
)

type MockCall struct {
	Channel Channel
	Phone   string
	Text    string
}

// MockClient 可配置的通知客户端 mock，实现 Client 接口
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
	// FailChannels 中列出的通道始终失败
	FailChannels map[Channel]error
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls:        make([]MockCall, 0),
		FailChannels: make(map[Channel]error),
	}
}

func (m *MockClient) send(channel Channel, phone, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{
		Channel: channel,
		Phone:   phone,
		Text:    text,
	})

	if err, ok := m.FailChannels[channel]; ok {
		if err == nil {
			err = errors.New("mock channel failure")
		}
		return err
	}

	if m.FailNext {
		m.FailNext = false
		return errors.New("mock notify failure")
	}

	return nil
}

func (m *MockClient) SendWhatsApp(ctx context.Context, phone, text string) error {
	return m.send(ChannelWhatsApp, phone, text)
}

func (m *MockClient) SendSMS(ctx context.Context, phone, text string) error {
	return m.send(ChannelSMS, phone, text)
}

func (m *MockClient) SendVoiceCall(ctx context.Context, phone, text string) error {
	return m.send(ChannelVoice, phone, text)
}

// CallsByChannel 返回指定通道的调用记录
func (m *MockClient) CallsByChannel(channel Channel) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockCall, 0)
	for _, call := range m.Calls {
		if call.Channel == channel {
			out = append(out, call)
		}
	}
	return out
}
