package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/markb/bazarbot/internal/i18n"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

func (h *Handler) startSellFlow(ctx context.Context, user *store.User, chatID int64) error {
	if err := h.store.ClearTempData(ctx, user.ID); err != nil {
		return err
	}
	return h.sendCategoryList(ctx, user, chatID, "sell")
}

func (h *Handler) categoryChosen(ctx context.Context, user *store.User, chatID int64, parts []string) error {
	if len(parts) != 3 {
		return fmt.Errorf("malformed category callback %v", parts)
	}
	mode := parts[1]
	catID, err := parseID(parts[2])
	if err != nil {
		return err
	}
	if _, err := h.store.Category(ctx, catID); err != nil {
		return err
	}
	if mode == "sell" {
		td := &store.TempData{Data: map[string]string{"category_id": parts[2]}}
		if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
			return err
		}
	}
	return h.sendBrandList(ctx, user, chatID, mode, catID)
}

func (h *Handler) brandChosen(ctx context.Context, user *store.User, chatID int64, parts []string) error {
	if len(parts) != 3 {
		return fmt.Errorf("malformed brand callback %v", parts)
	}
	mode := parts[1]
	brandID, err := parseID(parts[2])
	if err != nil {
		return err
	}
	if mode == "buy" {
		return h.sendSearchResults(ctx, user, chatID, brandID)
	}

	td, err := h.store.TempData(ctx, user.ID)
	if err != nil {
		return err
	}
	td.Data["brand_id"] = parts[2]
	td.State = stateAwaitingModel
	if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
		return err
	}
	return h.reply(ctx, chatID, i18n.T(user.Language, "enter_model"))
}

// advanceSellFlow consumes one message for the current state and moves to the
// next one. Invalid input re-prompts without changing state.
func (h *Handler) advanceSellFlow(ctx context.Context, user *store.User, m *telegram.Message, td *store.TempData) error {
	lang := user.Language
	chatID := m.Chat.ID

	switch td.State {
	case stateAwaitingModel:
		model := strings.TrimSpace(m.Text)
		if model == "" {
			return h.reply(ctx, chatID, i18n.T(lang, "enter_model"))
		}
		td.Data["model"] = model
		td.State = stateAwaitingPrice
		if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
			return err
		}
		return h.reply(ctx, chatID, i18n.T(lang, "enter_price"))

	case stateAwaitingPrice:
		price, err := strconv.ParseInt(strings.TrimSpace(m.Text), 10, 64)
		if err != nil || price <= 0 {
			return h.reply(ctx, chatID, i18n.T(lang, "invalid_price"))
		}
		td.Data["price"] = strconv.FormatInt(price, 10)
		td.State = stateAwaitingDescription
		if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
			return err
		}
		return h.reply(ctx, chatID, i18n.T(lang, "enter_description"))

	case stateAwaitingDescription:
		desc := strings.TrimSpace(m.Text)
		if len([]rune(desc)) < 10 {
			return h.reply(ctx, chatID, i18n.T(lang, "description_too_short"))
		}
		td.Data["description"] = desc
		td.State = stateAwaitingCity
		if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
			return err
		}
		return h.reply(ctx, chatID, i18n.T(lang, "enter_city"))

	case stateAwaitingCity:
		city := strings.TrimSpace(m.Text)
		if city == "" {
			return h.reply(ctx, chatID, i18n.T(lang, "enter_city"))
		}
		td.Data["city"] = city
		// Photo and phone share the final step: a photo message stores the
		// image, a text or contact message completes the ad.
		td.State = stateAwaitingPhone
		if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
			return err
		}
		if err := h.reply(ctx, chatID, i18n.T(lang, "send_photo")); err != nil {
			return err
		}
		_, err := h.tg.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:      chatID,
			Text:        i18n.T(lang, "send_phone"),
			ReplyMarkup: h.contactKeyboard(lang),
		})
		return err

	case stateAwaitingPhone:
		if len(m.Photo) > 0 {
			key, err := h.storePhoto(ctx, m.Photo)
			if err != nil {
				return err
			}
			td.Data["photo"] = key
			if err := h.store.SetTempData(ctx, user.ID, td); err != nil {
				return err
			}
			return h.reply(ctx, chatID, i18n.T(lang, "send_phone"))
		}
		phone := strings.TrimSpace(m.Text)
		if m.Contact != nil {
			phone = m.Contact.PhoneNumber
		}
		if phone == "" {
			return h.reply(ctx, chatID, i18n.T(lang, "send_phone"))
		}
		td.Data["phone"] = phone
		return h.finishSellFlow(ctx, user, chatID, td)

	default:
		return h.reply(ctx, chatID, i18n.T(lang, "unknown_command"))
	}
}

func (h *Handler) finishSellFlow(ctx context.Context, user *store.User, chatID int64, td *store.TempData) error {
	catID, err := parseID(td.Data["category_id"])
	if err != nil {
		return err
	}
	brandID, err := parseID(td.Data["brand_id"])
	if err != nil {
		return err
	}
	price, _ := strconv.ParseInt(td.Data["price"], 10, 64)
	ad := &store.Advertisement{
		UserID:       user.ID,
		CategoryID:   catID,
		BrandID:      brandID,
		Model:        td.Data["model"],
		Price:        price,
		Description:  td.Data["description"],
		City:         td.Data["city"],
		ContactPhone: td.Data["phone"],
		PhotoPath:    td.Data["photo"],
	}
	if _, err := h.store.CreateAdvertisement(ctx, ad); err != nil {
		return err
	}
	if err := h.store.ClearTempData(ctx, user.ID); err != nil {
		return err
	}

	lang := user.Language
	_, err = h.tg.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        i18n.T(lang, "ad_created_success"),
		ReplyMarkup: telegram.ReplyKeyboardRemove{RemoveKeyboard: true},
	})
	if err != nil {
		return err
	}
	if h.cfg.AdPrice > 0 && h.cfg.PaymentCard != "" {
		msg := i18n.Fill(i18n.T(lang, "payment_instructions"), map[string]string{
			"price":       strconv.FormatInt(h.cfg.AdPrice, 10),
			"card_number": h.cfg.PaymentCard,
		})
		if err := h.reply(ctx, chatID, msg); err != nil {
			return err
		}
	}
	return h.sendMainMenu(ctx, lang, chatID)
}

// storePhoto downloads the largest resolution of an uploaded photo and saves
// it through the storage backend. Without a backend the Telegram file id is
// kept as the reference.
func (h *Handler) storePhoto(ctx context.Context, sizes []telegram.PhotoSize) (string, error) {
	fileID := sizes[len(sizes)-1].FileID
	if h.photos == nil {
		return fileID, nil
	}
	f, err := h.tg.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	data, err := h.tg.DownloadFile(ctx, f.FilePath)
	if err != nil {
		return "", err
	}
	return h.photos.SavePhoto(ctx, bytes.NewReader(data), "image/jpeg")
}
