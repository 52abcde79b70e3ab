package adapter

import (
	"context"
	"fmt"

	"banya/internal/pkg/httpclient"
	"banya/internal/pkg/logger"
)

// SMSHTTPAdapter 实现了 port.SMSSender 接口，通过短信网关的 HTTP API 外发。
// gatewayURL 为空时进入日志直出模式：码只打日志，方便本地联调。
type SMSHTTPAdapter struct {
	client     *httpclient.Client
	gatewayURL string
	apiKey     string
	sender     string
}

func NewSMSHTTPAdapter(client *httpclient.Client, gatewayURL, apiKey, sender string) *SMSHTTPAdapter {
	return &SMSHTTPAdapter{client: client, gatewayURL: gatewayURL, apiKey: apiKey, sender: sender}
}

type smsPayload struct {
	APIKey string `json:"api_key"`
	Sender string `json:"sender"`
	Phone  string `json:"phone"`
	Text   string `json:"text"`
}

// SendCode 外发一条确认码短信。
func (a *SMSHTTPAdapter) SendCode(ctx context.Context, phone, code string) error {
	if a.gatewayURL == "" {
		logger.Ctx(ctx).Info().
			Str("phone", phone).
			Str("code", code).
			Msg("SMS gateway not configured, code logged instead of sent.")
		return nil
	}

	_, err := a.client.PostJSON(ctx, a.gatewayURL, smsPayload{
		APIKey: a.apiKey,
		Sender: a.sender,
		Phone:  phone,
		Text:   fmt.Sprintf("Your confirmation code: %s", code),
	})
	return err
}
