// internal/service/notify/telegram.go
package notify

import (
	"context"
	"fmt"

	"banya/internal/pkg/httpclient"
	"banya/internal/pkg/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramSender 通过 Telegram Bot API 向运营群发送预订动态。
// Stage 为 DEV 时只打日志不外发，避免联调刷屏。
type TelegramSender struct {
	client  *httpclient.Client
	apiBase string
	token   string
	chatID  string
	stage   string
}

func NewTelegramSender(client *httpclient.Client, token, chatID, stage string) *TelegramSender {
	return &TelegramSender{
		client:  client,
		apiBase: telegramAPIBase,
		token:   token,
		chatID:  chatID,
		stage:   stage,
	}
}

type sendMessagePayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Send 发送一条文本消息。
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if s.stage == "DEV" || s.token == "" {
		logger.Ctx(ctx).Info().Str("text", text).Msg("Telegram sending skipped in DEV stage.")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	_, err := s.client.PostJSON(ctx, url, sendMessagePayload{
		ChatID: s.chatID,
		Text:   text,
	})
	return err
}
