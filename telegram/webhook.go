package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/store"
)

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// WebhookHandler processes incoming bot updates: the /start, /link,
// /status and /help commands, plus bare phone-number messages that link
// the chat directly.
type WebhookHandler struct {
	sender   Sender
	users    store.UserRepo
	settings store.SettingsRepo
	links    *PendingLinks
}

func NewWebhookHandler(sender Sender, users store.UserRepo, settings store.SettingsRepo, links *PendingLinks) *WebhookHandler {
	return &WebhookHandler{
		sender:   sender,
		users:    users,
		settings: settings,
		links:    links,
	}
}

// HandleUpdate dispatches a single webhook update. Delivery errors are
// logged, not returned: Telegram retries failed webhooks and a permanent
// error would make it re-deliver the same update forever.
func (h *WebhookHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	chatID := strconv.FormatInt(message.Chat.ID, 10)
	text := strings.TrimSpace(message.Text)

	var err error
	switch {
	case message.IsCommand():
		err = h.handleCommand(ctx, chatID, message)
	case strings.HasPrefix(text, "+"):
		err = h.handlePhoneNumber(ctx, chatID, text)
	default:
		err = h.sender.SendMessage(chatID,
			fmt.Sprintf("You said: %q\n\nSend /help to see available commands.", text))
	}
	if err != nil {
		log.Error().Err(err).Str("chat_id", chatID).Msg("telegram webhook handling failed")
	}
}

func (h *WebhookHandler) handleCommand(ctx context.Context, chatID string, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		firstName := ""
		if message.From != nil {
			firstName = message.From.FirstName
		}
		return h.sender.SendMessage(chatID, welcomeMessage(firstName))
	case "link":
		code, err := h.links.Create(chatID, "")
		if err != nil {
			return err
		}
		return h.sender.SendMessage(chatID, LinkCodeMessage(code))
	case "status":
		return h.sender.SendMessage(chatID, statusMessage)
	case "help":
		return h.sender.SendMessage(chatID, helpMessage)
	default:
		return h.sender.SendMessage(chatID, "Unknown command. Send /help for available commands.")
	}
}

// handlePhoneNumber links the chat directly when the user sends their
// whitelisted phone number.
func (h *WebhookHandler) handlePhoneNumber(ctx context.Context, chatID, phone string) error {
	phone = strings.Join(strings.Fields(phone), "")
	if !phonePattern.MatchString(phone) {
		return h.sender.SendMessage(chatID, "❌ Invalid phone number format. Please use format: +84912345678")
	}

	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.IsWhitelisted(phone) {
		return h.sender.SendMessage(chatID, "❌ Your phone number is not whitelisted. Please contact the administrator.")
	}

	normalized := store.NormalizePhone(phone)
	if err := h.users.UpsertUser(ctx, &store.User{
		PhoneNumber:    normalized,
		TelegramChatID: chatID,
	}); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return h.sender.SendMessage(chatID,
		fmt.Sprintf("✅ Your phone number %s has been linked!\n\nYou can now login at the ePass web app to receive OTP codes here.", phone))
}

func welcomeMessage(firstName string) string {
	greeting := ""
	if firstName != "" {
		greeting = fmt.Sprintf("Hello %s! ", firstName)
	}
	return fmt.Sprintf(`👋 <b>Welcome to ePass Toll Manager Bot!</b>

%sI'll help you link your Telegram account to receive OTP verification codes.

<b>How to link your account:</b>
1️⃣ Send me your phone number (with country code)
   Example: +84912345678

2️⃣ I'll send you a verification code

3️⃣ Enter the code in the ePass web app

<b>Commands:</b>
/start - Show this message
/link - Link your phone number
/status - Check your link status
/help - Show help`, greeting)
}

const statusMessage = `ℹ️ <b>Account Status</b>

Your Telegram account is ready to receive OTP codes.

To check your link status, please try logging in at the ePass web app.`

const helpMessage = `❓ <b>Help & Support</b>

<b>How to receive OTP via Telegram:</b>
1. Make sure your phone number is whitelisted
2. Link your Telegram account using /link
3. Login at the ePass web app
4. Enter your phone number
5. Receive OTP instantly here! 🎉

<b>Commands:</b>
/start - Start the bot
/link - Get link code
/status - Check status
/help - Show this help

<b>Need help?</b> Contact support.`
