package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/auth"
	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/internal/config"
	"github.com/nguyensondev/epass-web/server"
	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/store/envstore"
	"github.com/nguyensondev/epass-web/store/postgres"
	"github.com/nguyensondev/epass-web/store/sqlite"
	"github.com/nguyensondev/epass-web/telegram"
)

const linkCleanupInterval = 1 * time.Minute

func main() {
	for {
		if err := run(); err != nil {
			stdlog.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	stdlog.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			stdlog.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	deps, cleanup, err := buildDeps(context.Background(), c)
	if err != nil {
		return fmt.Errorf("buildDeps: %w", err)
	}
	defer cleanup()

	stop := make(chan struct{})
	defer close(stop)
	deps.Links.StartCleanup(linkCleanupInterval, stop)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: server.New(c, deps)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildDeps wires storage and services. Postgres is the primary store when
// DATABASE_URL is set; SQLite always runs as the local fallback and env vars
// act as a read-only last resort for tokens and credentials.
func buildDeps(ctx context.Context, c config.Config) (server.Deps, func(), error) {
	sqliteStore, err := sqlite.Open(c.GetSQLitePath())
	if err != nil {
		return server.Deps{}, func() {}, fmt.Errorf("sqlite.Open: %w", err)
	}
	cleanup := func() { _ = sqliteStore.Close() }

	envStore := envstore.New(c)

	tokenStores := []store.TokenStore{}
	credStores := []store.CredentialStore{}

	var users store.UserRepo = sqliteStore
	var settings store.SettingsRepo = sqliteStore
	var otps store.OTPStore = sqliteStore

	if databaseURL := c.GetDatabaseURL(); databaseURL != "" {
		pgStore, err := postgres.Connect(ctx, databaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("postgres unavailable, falling back to sqlite")
		} else {
			tokenStores = append(tokenStores, pgStore)
			credStores = append(credStores, pgStore)
			users = pgStore
			settings = pgStore
			otps = pgStore
			closeSQLite := cleanup
			cleanup = func() {
				pgStore.Close()
				closeSQLite()
			}
		}
	}
	tokenStores = append(tokenStores, sqliteStore, envStore)
	credStores = append(credStores, sqliteStore, envStore)

	tokens := epass.NewTokenManager(c, tokenStores, credStores)
	client := epass.NewClient(c, tokens)
	service := epass.NewService(c, client)

	bot, err := telegram.NewBot(c.GetTelegramBotToken())
	if err != nil {
		return server.Deps{}, cleanup, fmt.Errorf("telegram.NewBot: %w", err)
	}
	links := telegram.NewPendingLinks()

	return server.Deps{
		Sessions: auth.NewSessionManager(c),
		OTP:      auth.NewOTPService(otps, c),
		Service:  service,
		Client:   client,
		Users:    users,
		Settings: settings,
		Bot:      bot,
		Webhook:  telegram.NewWebhookHandler(bot, users, settings, links),
		Links:    links,
	}, cleanup, nil
}

func setupLogging(env string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(server *http.Server) error {
	stdlog.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
