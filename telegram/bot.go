// Package telegram delivers one-time login codes and toll notifications
// through a Telegram bot, and handles the bot's incoming webhook updates
// for account linking.
package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/internal/utils"
)

// Sender is the outbound messaging capability: send a text to a chat.
// Satisfied by *Bot; tests substitute a fake.
type Sender interface {
	SendMessage(chatID, text string) error
}

// Bot wraps the Telegram Bot API client.
type Bot struct {
	api *tgbotapi.BotAPI
}

func NewBot(botToken string) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{api: api}, nil
}

// BotInfo describes the bot account, used by the UI to build a t.me link.
type BotInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (b *Bot) Info() (*BotInfo, error) {
	me, err := b.api.GetMe()
	if err != nil {
		return nil, fmt.Errorf("get bot info: %w", err)
	}
	return &BotInfo{ID: me.ID, Username: me.UserName}, nil
}

// SendMessage sends an HTML-formatted message. Chat IDs are stored as
// strings; Telegram wants an int64.
func (b *Bot) SendMessage(chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// OTPMessage formats the one-time login code delivery message.
func OTPMessage(code string) string {
	return fmt.Sprintf(`🔐 <b>ePass Toll Manager - Verification Code</b>

Your verification code is: <code>%s</code>

⏱ This code will expire in 5 minutes.

If you didn't request this code, please ignore this message.`, code)
}

// TransactionMessage formats a new-toll-charge notification.
func TransactionMessage(tx epass.Transaction) string {
	return fmt.Sprintf(`🔔 <b>New toll charge</b>

📍 Station: %s
🕐 Time: %s
🎫 Ticket: %s
💰 Fee: %s`, tx.StationInName, tx.TimestampIn, tx.TicketTypeName, utils.FormatVND(tx.Price))
}

// LinkCodeMessage formats the account-link code handed out by /link.
func LinkCodeMessage(code string) string {
	return fmt.Sprintf(`🔗 <b>Link Your Account</b>

Your verification code is: <code>%s</code>

<b>Steps:</b>
1. Go to the ePass web app
2. Click "Link Telegram" or enter your phone number
3. Enter this code when prompted

⏱ This code expires in 10 minutes.

💡 <b>Tip:</b> After linking, you'll receive OTP codes here for login!`, code)
}
