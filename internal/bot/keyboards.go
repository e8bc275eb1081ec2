package bot

import (
	"context"
	"fmt"

	"github.com/markb/bazarbot/internal/i18n"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

func (h *Handler) sendMainMenu(ctx context.Context, lang string, chatID int64) error {
	kb := telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: i18n.T(lang, "sell_button")}, {Text: i18n.T(lang, "buy_button")}},
			{{Text: i18n.T(lang, "my_ads")}, {Text: i18n.T(lang, "my_favorites")}},
			{{Text: i18n.T(lang, "language_button")}, {Text: i18n.T(lang, "help_button")}},
		},
		ResizeKeyboard: true,
	}
	_, err := h.tg.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        i18n.T(lang, "main_menu"),
		ReplyMarkup: kb,
	})
	return err
}

func (h *Handler) sendLanguageKeyboard(ctx context.Context, lang string, chatID int64) error {
	kb := telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "🇷🇺 Русский", CallbackData: "lang:ru"}},
			{{Text: "🇺🇿 O'zbekcha", CallbackData: "lang:uz"}},
			{{Text: "🇬🇧 English", CallbackData: "lang:en"}},
		},
	}
	_, err := h.tg.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        i18n.T(lang, "select_language"),
		ReplyMarkup: kb,
	})
	return err
}

func (h *Handler) setLanguage(ctx context.Context, user *store.User, chatID int64, lang string) error {
	if !i18n.Supported(lang) {
		return fmt.Errorf("unsupported language %q", lang)
	}
	if err := h.store.SetUserLanguage(ctx, user.TelegramID, lang); err != nil {
		return err
	}
	if err := h.reply(ctx, chatID, i18n.T(lang, "language_changed")); err != nil {
		return err
	}
	return h.sendMainMenu(ctx, lang, chatID)
}

// sendCategoryList shows the category picker. mode is "sell" or "buy" and is
// threaded through the callback data so the brand step knows which flow it
// serves.
func (h *Handler) sendCategoryList(ctx context.Context, user *store.User, chatID int64, mode string) error {
	cats, err := h.store.Categories(ctx)
	if err != nil {
		return err
	}
	var rows [][]telegram.InlineKeyboardButton
	for _, c := range cats {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         c.Name(user.Language),
			CallbackData: fmt.Sprintf("cat:%s:%d", mode, c.ID),
		}})
	}
	key := "select_category_buy"
	if mode == "sell" {
		key = "select_category_sell"
	}
	_, err = h.tg.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        i18n.T(user.Language, key),
		ReplyMarkup: telegram.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	return err
}

func (h *Handler) sendBrandList(ctx context.Context, user *store.User, chatID int64, mode string, categoryID int64) error {
	brands, err := h.store.Brands(ctx, categoryID)
	if err != nil {
		return err
	}
	if len(brands) == 0 {
		return h.reply(ctx, chatID, i18n.T(user.Language, "no_brands"))
	}
	var rows [][]telegram.InlineKeyboardButton
	row := []telegram.InlineKeyboardButton{}
	for _, b := range brands {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         b.Name,
			CallbackData: fmt.Sprintf("brand:%s:%d", mode, b.ID),
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	_, err = h.tg.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        i18n.T(user.Language, "select_brand"),
		ReplyMarkup: telegram.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	return err
}

func (h *Handler) contactKeyboard(lang string) telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: i18n.T(lang, "send_phone"), RequestContact: true}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}
