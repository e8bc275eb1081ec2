// Package bot dispatches incoming Telegram updates: the main menu, the guided
// sell flow, browsing, favorites, and moderation commands. All state between
// messages lives in the store's per-user temp data, so the process is
// stateless and restartable.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/markb/bazarbot/internal/i18n"
	"github.com/markb/bazarbot/internal/storage"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

// Conversation states for the sell flow.
const (
	stateAwaitingModel       = "awaiting_model"
	stateAwaitingPrice       = "awaiting_price"
	stateAwaitingDescription = "awaiting_description"
	stateAwaitingCity        = "awaiting_city"
	stateAwaitingPhone       = "awaiting_phone"
)

// Config carries the business settings the bot needs.
type Config struct {
	AdPrice     int64
	PaymentCard string
	MiniAppURL  string
}

// Handler routes one update at a time.
type Handler struct {
	store  *store.Store
	tg     *telegram.Client
	photos *storage.Service
	cfg    Config
	logger *slog.Logger
}

// New creates an update handler. photos may be nil, in which case uploaded
// photos are referenced by their Telegram file id instead of being copied to
// the storage backend.
func New(st *store.Store, tg *telegram.Client, photos *storage.Service, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: st, tg: tg, photos: photos, cfg: cfg, logger: logger}
}

// HandleUpdate processes one webhook update. Errors are returned for logging;
// the webhook endpoint still acknowledges the update so Telegram does not
// redeliver it forever.
func (h *Handler) HandleUpdate(ctx context.Context, u *telegram.Update) error {
	switch {
	case u.CallbackQuery != nil:
		return h.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil:
		return h.handleMessage(ctx, u.Message)
	default:
		return nil
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *telegram.Message) error {
	user, err := h.store.GetOrCreateUser(ctx, m.From.ID, m.From.FirstName, m.From.Username,
		i18n.Normalize(m.From.LanguageCode))
	if err != nil {
		return err
	}
	lang := user.Language

	if strings.HasPrefix(m.Text, "/") {
		return h.handleCommand(ctx, user, m)
	}

	// Menu buttons match against the user's catalog language.
	switch m.Text {
	case i18n.T(lang, "sell_button"):
		return h.startSellFlow(ctx, user, m.Chat.ID)
	case i18n.T(lang, "buy_button"):
		return h.sendCategoryList(ctx, user, m.Chat.ID, "buy")
	case i18n.T(lang, "my_ads"):
		return h.sendMyAds(ctx, user, m.Chat.ID)
	case i18n.T(lang, "my_favorites"):
		return h.sendFavorites(ctx, user, m.Chat.ID)
	case i18n.T(lang, "language_button"):
		return h.sendLanguageKeyboard(ctx, lang, m.Chat.ID)
	case i18n.T(lang, "help_button"):
		return h.reply(ctx, m.Chat.ID, i18n.T(lang, "help_message"))
	}

	// Anything else feeds the active flow, if there is one.
	td, err := h.store.TempData(ctx, user.ID)
	if err != nil {
		return err
	}
	if td.State != "" {
		return h.advanceSellFlow(ctx, user, m, td)
	}
	return h.reply(ctx, m.Chat.ID, i18n.T(lang, "unknown_command"))
}

func (h *Handler) handleCommand(ctx context.Context, user *store.User, m *telegram.Message) error {
	cmd := strings.Fields(m.Text)[0]
	switch cmd {
	case "/start":
		if err := h.store.ClearTempData(ctx, user.ID); err != nil {
			return err
		}
		return h.sendMainMenu(ctx, user.Language, m.Chat.ID)
	case "/language":
		return h.sendLanguageKeyboard(ctx, user.Language, m.Chat.ID)
	case "/pending":
		if user.Role != store.RoleAdmin {
			return h.reply(ctx, m.Chat.ID, i18n.T(user.Language, "unknown_command"))
		}
		return h.sendModerationQueue(ctx, user, m.Chat.ID)
	default:
		return h.reply(ctx, m.Chat.ID, i18n.T(user.Language, "unknown_command"))
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	user, err := h.store.GetOrCreateUser(ctx, cb.From.ID, cb.From.FirstName, cb.From.Username,
		i18n.Normalize(cb.From.LanguageCode))
	if err != nil {
		return err
	}
	if cb.Message == nil {
		return h.tg.AnswerCallbackQuery(ctx, cb.ID, "")
	}
	chatID := cb.Message.Chat.ID

	parts := strings.Split(cb.Data, ":")
	var cbErr error
	switch parts[0] {
	case "lang":
		cbErr = h.setLanguage(ctx, user, chatID, parts[1])
	case "cat":
		cbErr = h.categoryChosen(ctx, user, chatID, parts)
	case "brand":
		cbErr = h.brandChosen(ctx, user, chatID, parts)
	case "fav":
		cbErr = h.toggleFavorite(ctx, user, chatID, parts)
	case "mod":
		cbErr = h.moderate(ctx, user, chatID, parts)
	default:
		h.logger.Warn("unknown callback", "data", cb.Data)
	}
	if err := h.tg.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
		h.logger.Warn("answer callback failed", "error", err)
	}
	return cbErr
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) error {
	_, err := h.tg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text})
	return err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return id, nil
}
