// Package checker implements the periodic new-transaction check: fetch
// the last day of toll events, pick out those newer than the last run,
// and notify every linked Telegram user.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/telegram"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// lookback is how far behind the current run the fetch reaches. Wider
// than the check interval so a failed run does not lose transactions.
const lookback = 24 * time.Hour

type Checker struct {
	service  *epass.Service
	users    store.UserRepo
	settings store.SettingsRepo
	sender   telegram.Sender
}

func New(service *epass.Service, users store.UserRepo, settings store.SettingsRepo, sender telegram.Sender) *Checker {
	return &Checker{
		service:  service,
		users:    users,
		settings: settings,
		sender:   sender,
	}
}

// Run performs one check cycle. The last-checked timestamp only advances
// after notifications went out, so a failed run is retried in full on the
// next cycle.
func (c *Checker) Run(ctx context.Context) error {
	users, err := c.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		log.Info().Msg("no users registered, skipping transaction check")
		return nil
	}

	settings, err := c.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	end := NowTimeFunc()
	start := end.Add(-lookback)

	transactions, err := c.service.FetchTransactions(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}
	log.Info().Int("count", len(transactions)).Msg("fetched transactions for check window")

	fresh := filterNewer(transactions, settings.LastChecked)
	log.Info().Int("count", len(fresh)).Msg("new transactions since last check")

	if len(fresh) > 0 {
		sent := 0
		for _, user := range users {
			if user.TelegramChatID == "" {
				continue
			}
			for _, tx := range fresh {
				if err := c.sender.SendMessage(user.TelegramChatID, telegram.TransactionMessage(tx)); err != nil {
					log.Error().Err(err).Str("phone", user.PhoneNumber).Msg("failed to send transaction notification")
					continue
				}
				sent++
			}
		}
		log.Info().Int("sent", sent).Msg("sent telegram notifications")
	}

	if err := c.settings.SetLastChecked(ctx, end); err != nil {
		return fmt.Errorf("update last checked timestamp: %w", err)
	}
	return nil
}

// filterNewer keeps transactions whose entry timestamp is strictly after
// the cutoff. Transactions with unparseable timestamps are kept: a
// notification about a malformed record beats silently dropping it.
func filterNewer(transactions []epass.Transaction, cutoff time.Time) []epass.Transaction {
	var fresh []epass.Transaction
	for _, tx := range transactions {
		t, err := epass.ParseTimestamp(tx.TimestampIn)
		if err != nil {
			log.Warn().Str("id", tx.ID).Str("timestamp", tx.TimestampIn).Msg("transaction has unparseable timestamp")
			fresh = append(fresh, tx)
			continue
		}
		if t.After(cutoff) {
			fresh = append(fresh, tx)
		}
	}
	return fresh
}
