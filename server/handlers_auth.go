package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/nguyensondev/epass-web/internal/errors"
	"github.com/nguyensondev/epass-web/store"
	"github.com/nguyensondev/epass-web/telegram"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// SendOTPHandler issues a one-time login code and delivers it over the
// user's linked Telegram chat. The phone must be whitelisted and linked.
func (s *Server) SendOTPHandler() http.HandlerFunc {
	type request struct {
		PhoneNumber string `json:"phoneNumber"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
			writeJSONError(w, http.StatusBadRequest, "phone number is required")
			return
		}

		ctx := r.Context()
		settings, err := s.deps.Settings.GetSettings(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to load settings")
			writeJSONError(w, http.StatusInternalServerError, "failed to send OTP")
			return
		}
		if !settings.IsWhitelisted(req.PhoneNumber) {
			writeJSONError(w, http.StatusForbidden, "phone number is not allowed, please contact the administrator")
			return
		}

		normalized := store.NormalizePhone(req.PhoneNumber)
		user, err := s.deps.Users.GetUser(ctx, normalized)
		if err != nil || user.TelegramChatID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":             "telegram account not linked, please start the bot and link your account first",
				"needsTelegramLink": true,
			})
			return
		}

		code, err := s.deps.OTP.Issue(ctx, req.PhoneNumber)
		if err != nil {
			log.Error().Err(err).Msg("failed to issue otp")
			writeJSONError(w, http.StatusInternalServerError, "failed to send OTP")
			return
		}

		if err := s.deps.Bot.SendMessage(user.TelegramChatID, telegram.OTPMessage(code)); err != nil {
			log.Error().Err(err).Msg("failed to deliver otp via telegram")
			writeJSONError(w, http.StatusInternalServerError, "failed to send OTP via Telegram, please try again")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "OTP sent via Telegram",
		})
	}
}

// VerifyOTPHandler exchanges a valid one-time code for a web session token.
func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	type request struct {
		PhoneNumber string `json:"phoneNumber"`
		OTP         string `json:"otp"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" || req.OTP == "" {
			writeJSONError(w, http.StatusBadRequest, "phone number and OTP are required")
			return
		}

		if err := s.deps.OTP.Verify(r.Context(), req.PhoneNumber, req.OTP); err != nil {
			switch {
			case apperrors.Is(err, apperrors.ErrOTPNotFound):
				writeJSONError(w, http.StatusBadRequest, "OTP not found or expired")
			case apperrors.Is(err, apperrors.ErrOTPExpired):
				writeJSONError(w, http.StatusBadRequest, "OTP has expired")
			case apperrors.Is(err, apperrors.ErrInvalidOTP):
				writeJSONError(w, http.StatusBadRequest, "invalid OTP")
			default:
				log.Error().Err(err).Msg("otp verification failed")
				writeJSONError(w, http.StatusInternalServerError, "failed to verify OTP")
			}
			return
		}

		token, err := s.deps.Sessions.Sign(req.PhoneNumber)
		if err != nil {
			log.Error().Err(err).Msg("failed to sign session token")
			writeJSONError(w, http.StatusInternalServerError, "failed to verify OTP")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   token,
			"user":    map[string]string{"phoneNumber": req.PhoneNumber},
		})
	}
}
