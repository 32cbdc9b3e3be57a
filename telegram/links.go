package telegram

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	apperrors "github.com/nguyensondev/epass-web/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const linkCodeTTL = 10 * time.Minute

// PendingLink is a not-yet-confirmed mapping between a Telegram chat and
// a phone number.
type PendingLink struct {
	ChatID      string
	PhoneNumber string
	ExpiresAt   time.Time
}

// PendingLinks holds link codes handed out by the bot until the user
// confirms them in the web app. Purely in-memory: a lost code just means
// running /link again.
type PendingLinks struct {
	lock  sync.Mutex
	links map[string]PendingLink
}

func NewPendingLinks() *PendingLinks {
	return &PendingLinks{links: make(map[string]PendingLink)}
}

// Create issues a new 6-digit link code for a chat.
func (p *PendingLinks) Create(chatID, phoneNumber string) (string, error) {
	code, err := generateLinkCode()
	if err != nil {
		return "", fmt.Errorf("generate link code: %w", err)
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	p.links[code] = PendingLink{
		ChatID:      chatID,
		PhoneNumber: phoneNumber,
		ExpiresAt:   NowTimeFunc().Add(linkCodeTTL),
	}
	return code, nil
}

// Consume validates a code and removes it. Expired codes report the same
// error as unknown ones.
func (p *PendingLinks) Consume(code string) (*PendingLink, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	link, ok := p.links[code]
	if !ok {
		return nil, apperrors.ErrLinkCodeNotFound
	}
	delete(p.links, code)
	if NowTimeFunc().After(link.ExpiresAt) {
		return nil, apperrors.ErrLinkCodeNotFound
	}
	return &link, nil
}

// Cleanup drops expired codes. Run periodically by the server.
func (p *PendingLinks) Cleanup() {
	p.lock.Lock()
	defer p.lock.Unlock()

	now := NowTimeFunc()
	for code, link := range p.links {
		if link.ExpiresAt.Before(now) {
			delete(p.links, code)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (p *PendingLinks) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

func generateLinkCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
