package telegram

import (
	"context"
	"regexp"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/store/storefakes"
)

type fakeSender struct {
	lock     sync.Mutex
	messages []sentMessage
}

type sentMessage struct {
	chatID string
	text   string
}

func (f *fakeSender) SendMessage(chatID, text string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) sent() []sentMessage {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]sentMessage(nil), f.messages...)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{FirstName: "Son"},
		},
	}
}

func commandUpdate(chatID int64, command string) tgbotapi.Update {
	update := textUpdate(chatID, command)
	update.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command)},
	}
	return update
}

func newTestWebhook(fake *storefakes.FakeStore) (*WebhookHandler, *fakeSender, *PendingLinks) {
	sender := &fakeSender{}
	links := NewPendingLinks()
	return NewWebhookHandler(sender, fake, fake, links), sender, links
}

func TestWebhookStartCommand(t *testing.T) {
	handler, sender, _ := newTestWebhook(storefakes.New())

	handler.HandleUpdate(context.Background(), commandUpdate(42, "/start"))

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "42", sent[0].chatID)
	require.Contains(t, sent[0].text, "Hello Son!")
	require.Contains(t, sent[0].text, "Welcome to ePass Toll Manager Bot")
}

func TestWebhookLinkCommandIssuesCode(t *testing.T) {
	handler, sender, links := newTestWebhook(storefakes.New())

	handler.HandleUpdate(context.Background(), commandUpdate(42, "/link"))

	sent := sender.sent()
	require.Len(t, sent, 1)

	codePattern := regexpMustFind(t, sent[0].text)
	link, err := links.Consume(codePattern)
	require.NoError(t, err)
	require.Equal(t, "42", link.ChatID)
}

func TestWebhookPhoneNumberLinksWhitelistedUser(t *testing.T) {
	fake := storefakes.New()
	fake.SetStoredSettings(store.Settings{WhitelistedPhones: []string{"+84912345678"}})
	handler, sender, _ := newTestWebhook(fake)

	handler.HandleUpdate(context.Background(), textUpdate(42, "+84912345678"))

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].text, "has been linked")

	user, err := fake.GetUser(context.Background(), store.NormalizePhone("+84912345678"))
	require.NoError(t, err)
	require.Equal(t, "42", user.TelegramChatID)
}

func TestWebhookPhoneNumberNotWhitelisted(t *testing.T) {
	handler, sender, _ := newTestWebhook(storefakes.New())

	handler.HandleUpdate(context.Background(), textUpdate(42, "+84911111111"))

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].text, "not whitelisted")

	_, err := storefakes.New().GetUser(context.Background(), "911111111")
	require.Error(t, err)
}

func TestWebhookRejectsMalformedPhoneNumber(t *testing.T) {
	handler, sender, _ := newTestWebhook(storefakes.New())

	handler.HandleUpdate(context.Background(), textUpdate(42, "+84abc"))

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].text, "Invalid phone number format")
}

func TestWebhookIgnoresEmptyUpdates(t *testing.T) {
	handler, sender, _ := newTestWebhook(storefakes.New())

	handler.HandleUpdate(context.Background(), tgbotapi.Update{})

	require.Empty(t, sender.sent())
}

func TestWebhookUnknownTextGetsHelpHint(t *testing.T) {
	handler, sender, _ := newTestWebhook(storefakes.New())

	handler.HandleUpdate(context.Background(), textUpdate(42, "hello"))

	sent := sender.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].text, "/help")
}

var linkCodePattern = regexp.MustCompile(`\d{6}`)

// regexpMustFind pulls the 6-digit link code out of the bot message.
func regexpMustFind(t *testing.T, text string) string {
	t.Helper()
	code := linkCodePattern.FindString(text)
	require.NotEmpty(t, code, "no link code in message: %s", text)
	return code
}
