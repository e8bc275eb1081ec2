// internal/server/webhook.go
package server

import (
	"encoding/json"
	"net/http"

	"github.com/markb/bazarbot/internal/log"
	"github.com/markb/bazarbot/internal/telegram"
)

// handleWebhook accepts one update from Telegram. A configured secret token
// must match the X-Telegram-Bot-Api-Secret-Token header. The update is always
// acknowledged with 200 once accepted so Telegram does not redeliver it;
// handler errors are logged instead.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret != "" &&
		r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != s.cfg.WebhookSecret {
		s.writeError(w, http.StatusForbidden, "invalid_secret", "Webhook secret mismatch")
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_update", "Malformed update payload")
		return
	}

	if err := s.bot.HandleUpdate(r.Context(), &update); err != nil {
		log.Error("webhook update failed", "update_id", update.UpdateID, "error", err.Error())
	}
	w.WriteHeader(http.StatusOK)
}
