package config

type TelegramConfig interface {
	GetTelegramBotToken() string
	GetTelegramWebhookSecret() string
}

type Telegram struct{}

var _ TelegramConfig = Telegram{}

func (Telegram) GetTelegramBotToken() string {
	return GetEnv("TELEGRAM_BOT_TOKEN", "")
}

// GetTelegramWebhookSecret returns the secret token Telegram echoes back in
// the X-Telegram-Bot-Api-Secret-Token header. Empty disables the check.
func (Telegram) GetTelegramWebhookSecret() string {
	return GetEnv("TELEGRAM_WEBHOOK_SECRET", "")
}
