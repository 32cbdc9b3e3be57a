package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/checker"
	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/internal/config"
	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/store/envstore"
	"github.com/nguyensondev/epass-web/store/postgres"
	"github.com/nguyensondev/epass-web/store/sqlite"
	"github.com/nguyensondev/epass-web/telegram"
)

const runTimeout = 5 * time.Minute

// One-shot transaction check, meant to be driven by cron or a scheduler.
func main() {
	if err := run(); err != nil {
		stdlog.Fatalf("Error running checker: %s\n", err)
	}
}

func run() error {
	c := config.New()
	setupLogging(c.GetEnv())

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	sqliteStore, err := sqlite.Open(c.GetSQLitePath())
	if err != nil {
		return fmt.Errorf("sqlite.Open: %w", err)
	}
	defer sqliteStore.Close()

	envStore := envstore.New(c)

	tokenStores := []store.TokenStore{}
	credStores := []store.CredentialStore{}

	var users store.UserRepo = sqliteStore
	var settings store.SettingsRepo = sqliteStore

	if databaseURL := c.GetDatabaseURL(); databaseURL != "" {
		pgStore, err := postgres.Connect(ctx, databaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("postgres unavailable, falling back to sqlite")
		} else {
			defer pgStore.Close()
			tokenStores = append(tokenStores, pgStore)
			credStores = append(credStores, pgStore)
			users = pgStore
			settings = pgStore
		}
	}
	tokenStores = append(tokenStores, sqliteStore, envStore)
	credStores = append(credStores, sqliteStore, envStore)

	tokens := epass.NewTokenManager(c, tokenStores, credStores)
	client := epass.NewClient(c, tokens)
	service := epass.NewService(c, client)

	bot, err := telegram.NewBot(c.GetTelegramBotToken())
	if err != nil {
		return fmt.Errorf("telegram.NewBot: %w", err)
	}

	return checker.New(service, users, settings, bot).Run(ctx)
}

func setupLogging(env string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
