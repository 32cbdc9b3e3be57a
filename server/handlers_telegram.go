package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/store"
)

// TelegramLinkHandler attaches a chat ID directly to the logged-in user.
func (s *Server) TelegramLinkHandler() http.HandlerFunc {
	type request struct {
		ChatID string `json:"chatId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" {
			writeJSONError(w, http.StatusBadRequest, "chat ID is required")
			return
		}

		phone := sessionPhone(r)
		if err := s.deps.Users.SetTelegramChatID(r.Context(), store.NormalizePhone(phone), req.ChatID); err != nil {
			log.Error().Err(err).Msg("failed to link telegram")
			writeJSONError(w, http.StatusInternalServerError, "failed to link Telegram")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) TelegramUnlinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := sessionPhone(r)
		if err := s.deps.Users.ClearTelegramChatID(r.Context(), store.NormalizePhone(phone)); err != nil {
			log.Error().Err(err).Msg("failed to unlink telegram")
			writeJSONError(w, http.StatusInternalServerError, "failed to unlink Telegram")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// TelegramVerifyCodeHandler completes bot-initiated linking: the user
// enters the code from /link together with their phone number.
func (s *Server) TelegramVerifyCodeHandler() http.HandlerFunc {
	type request struct {
		Code        string `json:"code"`
		PhoneNumber string `json:"phoneNumber"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.PhoneNumber == "" {
			writeJSONError(w, http.StatusBadRequest, "code and phone number are required")
			return
		}

		ctx := r.Context()
		settings, err := s.deps.Settings.GetSettings(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to load settings")
			writeJSONError(w, http.StatusInternalServerError, "failed to verify link code")
			return
		}
		if !settings.IsWhitelisted(req.PhoneNumber) {
			writeJSONError(w, http.StatusForbidden, "phone number is not allowed, please contact the administrator")
			return
		}

		pending, err := s.deps.Links.Consume(req.Code)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid or expired code")
			return
		}

		normalized := store.NormalizePhone(req.PhoneNumber)
		if err := s.deps.Users.UpsertUser(ctx, &store.User{
			PhoneNumber:    normalized,
			TelegramChatID: pending.ChatID,
		}); err != nil {
			log.Error().Err(err).Msg("failed to save linked user")
			writeJSONError(w, http.StatusInternalServerError, "failed to verify link code")
			return
		}

		confirmation := fmt.Sprintf("✅ Your account has been successfully linked!\n\nPhone: %s\n\nYou can now login to receive OTP codes.", req.PhoneNumber)
		if err := s.deps.Bot.SendMessage(pending.ChatID, confirmation); err != nil {
			log.Warn().Err(err).Msg("failed to send link confirmation")
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "account linked successfully",
		})
	}
}

func (s *Server) TelegramBotInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := s.deps.Bot.Info()
		if err != nil {
			log.Error().Err(err).Msg("failed to get bot info")
			writeJSONError(w, http.StatusInternalServerError, "failed to get bot info")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": info})
	}
}

// TelegramWebhookHandler receives bot updates. It always answers 200 so
// Telegram does not re-deliver updates whose processing failed.
func (s *Server) TelegramWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret := s.config.GetTelegramWebhookSecret(); secret != "" {
			if r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != secret {
				writeJSONError(w, http.StatusUnauthorized, "bad webhook secret")
				return
			}
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

		s.deps.Webhook.HandleUpdate(r.Context(), update)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
