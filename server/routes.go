package server

const (
	RouteHealth = "/healthz"

	RouteSendOTP   = "/api/auth/send-otp"
	RouteVerifyOTP = "/api/auth/verify-otp"

	RouteTransactions = "/api/transactions"
	RouteBalance      = "/api/balance"
	RouteExport       = "/api/export"
	RouteProxy        = "/api/epass-proxy"

	RouteTelegramLink       = "/api/telegram/link"
	RouteTelegramUnlink     = "/api/telegram/unlink"
	RouteTelegramVerifyCode = "/api/telegram/verify-code"
	RouteTelegramWebhook    = "/api/telegram/webhook"
	RouteTelegramBotInfo    = "/api/telegram/bot-info"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// LOGIN
	s.RegisterRouteHandler("POST "+RouteSendOTP, ChainMiddleware(s.SendOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyOTP, ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware()...))

	// Operator data (require a valid web session)
	s.RegisterRouteHandler("GET "+RouteTransactions, ChainMiddleware(s.TransactionsHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteBalance, ChainMiddleware(s.BalanceHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteExport, ChainMiddleware(s.ExportHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteProxy, ChainMiddleware(s.ProxyHandler(), s.AuthedAPIMiddleware()...))

	// Telegram account linking
	s.RegisterRouteHandler("POST "+RouteTelegramLink, ChainMiddleware(s.TelegramLinkHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTelegramUnlink, ChainMiddleware(s.TelegramUnlinkHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTelegramVerifyCode, ChainMiddleware(s.TelegramVerifyCodeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTelegramBotInfo, ChainMiddleware(s.TelegramBotInfoHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteTelegramWebhook, s.TelegramWebhookHandler())
}
