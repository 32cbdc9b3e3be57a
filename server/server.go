package server

import (
	"net/http"

	"github.com/nguyensondev/epass-web/auth"
	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/internal/config"
	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/telegram"
)

// Bot is the Telegram capability the server needs: outbound messages and
// the bot identity for the t.me link.
type Bot interface {
	telegram.Sender
	Info() (*telegram.BotInfo, error)
}

// Deps bundles the collaborators the handlers are wired to.
type Deps struct {
	Sessions *auth.SessionManager
	OTP      *auth.OTPService
	Service  *epass.Service
	Client   *epass.Client
	Users    store.UserRepo
	Settings store.SettingsRepo
	Bot      Bot
	Webhook  *telegram.WebhookHandler
	Links    *telegram.PendingLinks
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	deps   Deps
}

func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		deps:   deps,
		env:    cfg.GetEnv(),
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}
