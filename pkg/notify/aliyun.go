package notify

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"SafeWalk/config"
	"SafeWalk/pkg/logger"
)

// AliyunClient 同时持有短信和语音外呼两个 OpenAPI 客户端
// WhatsApp 不在阿里云通道内，返回 ErrChannelUnsupported，由上层降级到短信
type AliyunClient struct {
	smsClient   *openapi.Client
	voiceClient *openapi.Client
}

// NewAliyunClient 创建阿里云通知客户端
// 使用环境变量自动获取 AccessKey 和 SecretKey
// 需要设置环境变量：ALIBABA_CLOUD_ACCESS_KEY_ID 和 ALIBABA_CLOUD_ACCESS_KEY_SECRET
func NewAliyunClient() (*AliyunClient, error) {
	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	smsClient, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun sms client: %w", err)
	}

	voiceClient, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dyvmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun voice client: %w", err)
	}

	return &AliyunClient{
		smsClient:   smsClient,
		voiceClient: voiceClient,
	}, nil
}

func apiInfo(action, version string) *openapi.Params {
	return &openapi.Params{
		Action:      tea.String(action),
		Version:     tea.String(version),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}
}

func (c *AliyunClient) SendWhatsApp(ctx context.Context, phone, text string) error {
	return ErrChannelUnsupported
}

// SendSMS 通过模板变量投递告警文本
func (c *AliyunClient) SendSMS(ctx context.Context, phone, text string) error {
	cfg := config.Cfg
	if cfg.SMSSignName == "" {
		return fmt.Errorf("SMS_SIGN_NAME is required")
	}
	if cfg.SMSTemplateCode == "" {
		return fmt.Errorf("SMS_TEMPLATE_CODE is required")
	}

	templateParam, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("failed to marshal template param: %w", err)
	}

	params := apiInfo("SendSms", "2017-05-25")
	queries := map[string]interface{}{
		"PhoneNumbers":  tea.String(phone),
		"SignName":      tea.String(cfg.SMSSignName),
		"TemplateCode":  tea.String(cfg.SMSTemplateCode),
		"TemplateParam": tea.String(string(templateParam)),
	}

	resp, err := c.smsClient.CallApi(params, &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}, &util.RuntimeOptions{})
	if err != nil {
		logger.Logger.Error("Failed to send SMS",
			zap.String("template", cfg.SMSTemplateCode),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("SMS send failed: %w", err)
	}

	logger.Logger.Info("SMS sent successfully",
		zap.String("template", cfg.SMSTemplateCode),
	)

	return nil
}

// SendVoiceCall 通过 TTS 模板发起语音外呼
func (c *AliyunClient) SendVoiceCall(ctx context.Context, phone, text string) error {
	cfg := config.Cfg
	if cfg.VoiceTTSCode == "" {
		return fmt.Errorf("VOICE_TTS_CODE is required")
	}

	ttsParam, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("failed to marshal tts param: %w", err)
	}

	params := apiInfo("SingleCallByTts", "2017-05-25")
	queries := map[string]interface{}{
		"CalledNumber": tea.String(phone),
		"TtsCode":      tea.String(cfg.VoiceTTSCode),
		"TtsParam":     tea.String(string(ttsParam)),
	}
	if cfg.VoiceCalledShowNumber != "" {
		queries["CalledShowNumber"] = tea.String(cfg.VoiceCalledShowNumber)
	}

	resp, err := c.voiceClient.CallApi(params, &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}, &util.RuntimeOptions{})
	if err != nil {
		logger.Logger.Error("Failed to start voice call",
			zap.String("tts_code", cfg.VoiceTTSCode),
			zap.Error(err),
		)
		return fmt.Errorf("failed to start voice call: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("voice call failed: %w", err)
	}

	logger.Logger.Info("Voice call started successfully",
		zap.String("tts_code", cfg.VoiceTTSCode),
	)

	return nil
}

// checkResponse 校验阿里云 OpenAPI 的通用响应结构
func checkResponse(resp map[string]interface{}) error {
	if resp["statusCode"] != nil {
		if statusCode, ok := resp["statusCode"].(int); ok && statusCode != 200 {
			logger.Logger.Error("Notify API returned error",
				zap.Int("statusCode", statusCode),
				zap.Any("body", resp["body"]),
			)
			return fmt.Errorf("API error: statusCode=%d", statusCode)
		}
	}

	if resp["body"] != nil {
		bodyBytes, _ := json.Marshal(resp["body"])
		var bodyMap map[string]interface{}
		if err := json.Unmarshal(bodyBytes, &bodyMap); err == nil {
			if code, ok := bodyMap["Code"].(string); ok && code != "OK" {
				message := ""
				if msg, ok := bodyMap["Message"].(string); ok {
					message = msg
				}
				return fmt.Errorf("%s - %s", code, message)
			}
		}
	}

	return nil
}
