package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/markb/bazarbot/internal/i18n"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

const searchPageSize = 5

func formatAd(a *store.Advertisement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📱 %s\n", a.Model)
	fmt.Fprintf(&b, "💰 %s\n", formatPrice(a.Price))
	if a.City != "" {
		fmt.Fprintf(&b, "🏙️ %s\n", a.City)
	}
	fmt.Fprintf(&b, "📝 %s\n", a.Description)
	if a.ContactPhone != "" {
		fmt.Fprintf(&b, "📞 %s", a.ContactPhone)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatPrice groups digits by thousands, 1500000 renders as "1 500 000".
func formatPrice(price int64) string {
	s := strconv.FormatInt(price, 10)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, " ")
}

func (h *Handler) sendSearchResults(ctx context.Context, user *store.User, chatID int64, brandID int64) error {
	ads, err := h.store.Advertisements(ctx, store.AdFilter{BrandID: brandID, Limit: searchPageSize})
	if err != nil {
		return err
	}
	lang := user.Language
	if len(ads) == 0 {
		return h.reply(ctx, chatID, i18n.T(lang, "no_ads_found"))
	}
	count := i18n.Fill(i18n.T(lang, "found_ads"), map[string]string{"count": strconv.Itoa(len(ads))})
	if err := h.reply(ctx, chatID, count); err != nil {
		return err
	}
	for i := range ads {
		if err := h.sendAdCard(ctx, user, chatID, &ads[i]); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) sendAdCard(ctx context.Context, user *store.User, chatID int64, ad *store.Advertisement) error {
	fav, err := h.store.IsFavorite(ctx, user.ID, ad.ID)
	if err != nil {
		return err
	}
	btn := telegram.InlineKeyboardButton{Text: "🤍", CallbackData: fmt.Sprintf("fav:add:%d", ad.ID)}
	if fav {
		btn = telegram.InlineKeyboardButton{Text: "❤️", CallbackData: fmt.Sprintf("fav:del:%d", ad.ID)}
	}
	kb := telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{btn}}}
	text := formatAd(ad)

	if ad.PhotoPath != "" && !strings.ContainsAny(ad.PhotoPath, "/.") {
		// Plain token means a Telegram file id that can be resent directly.
		_, err = h.tg.SendPhoto(ctx, telegram.SendPhotoParams{
			ChatID:      chatID,
			Photo:       ad.PhotoPath,
			Caption:     text,
			ReplyMarkup: kb,
		})
		return err
	}
	_, err = h.tg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: kb})
	return err
}

func (h *Handler) sendMyAds(ctx context.Context, user *store.User, chatID int64) error {
	ads, err := h.store.UserAdvertisements(ctx, user.ID)
	if err != nil {
		return err
	}
	lang := user.Language
	if len(ads) == 0 {
		return h.reply(ctx, chatID, i18n.T(lang, "no_ads_found"))
	}
	for i := range ads {
		a := &ads[i]
		text := formatAd(a) + "\n\n" + statusBadge(a.Status)
		if err := h.reply(ctx, chatID, text); err != nil {
			return err
		}
	}
	return nil
}

func statusBadge(status string) string {
	switch status {
	case store.StatusPending:
		return "⏳ pending"
	case store.StatusApproved:
		return "✅ approved"
	case store.StatusRejected:
		return "❌ rejected"
	case store.StatusSold:
		return "🤝 sold"
	default:
		return status
	}
}

func (h *Handler) sendFavorites(ctx context.Context, user *store.User, chatID int64) error {
	ads, err := h.store.Favorites(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(ads) == 0 {
		return h.reply(ctx, chatID, i18n.T(user.Language, "no_ads_found"))
	}
	for i := range ads {
		if err := h.sendAdCard(ctx, user, chatID, &ads[i]); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) toggleFavorite(ctx context.Context, user *store.User, chatID int64, parts []string) error {
	if len(parts) != 3 {
		return fmt.Errorf("malformed favorite callback %v", parts)
	}
	adID, err := parseID(parts[2])
	if err != nil {
		return err
	}
	switch parts[1] {
	case "add":
		return h.store.AddFavorite(ctx, user.ID, adID)
	case "del":
		return h.store.RemoveFavorite(ctx, user.ID, adID)
	default:
		return fmt.Errorf("unknown favorite action %q", parts[1])
	}
}

func (h *Handler) sendModerationQueue(ctx context.Context, user *store.User, chatID int64) error {
	ads, err := h.store.PendingAdvertisements(ctx)
	if err != nil {
		return err
	}
	if len(ads) == 0 {
		return h.reply(ctx, chatID, i18n.T(user.Language, "no_ads_found"))
	}
	for i := range ads {
		a := &ads[i]
		kb := telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "✅", CallbackData: fmt.Sprintf("mod:approve:%d", a.ID)},
			{Text: "❌", CallbackData: fmt.Sprintf("mod:reject:%d", a.ID)},
		}}}
		_, err := h.tg.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:      chatID,
			Text:        formatAd(a),
			ReplyMarkup: kb,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) moderate(ctx context.Context, user *store.User, chatID int64, parts []string) error {
	if user.Role != store.RoleAdmin {
		return fmt.Errorf("user %d is not an admin", user.TelegramID)
	}
	if len(parts) != 3 {
		return fmt.Errorf("malformed moderation callback %v", parts)
	}
	adID, err := parseID(parts[2])
	if err != nil {
		return err
	}
	ad, err := h.store.Advertisement(ctx, adID)
	if err != nil {
		return err
	}

	var key, status string
	args := map[string]string{}
	switch parts[1] {
	case "approve":
		if err := h.store.ApproveAdvertisement(ctx, adID); err != nil {
			return err
		}
		key, status = "ad_approved", store.StatusApproved
	case "reject":
		if err := h.store.RejectAdvertisement(ctx, adID, ""); err != nil {
			return err
		}
		key, status = "ad_rejected", store.StatusRejected
		args["reason"] = "-"
	default:
		return fmt.Errorf("unknown moderation action %q", parts[1])
	}
	if err := h.reply(ctx, chatID, statusBadge(status)); err != nil {
		return err
	}
	return h.notifyOwner(ctx, ad.UserID, key, args)
}

// notifyOwner tells the ad owner about a moderation decision. Delivery
// failures are logged, not propagated, since the decision itself succeeded.
func (h *Handler) notifyOwner(ctx context.Context, ownerID int64, key string, args map[string]string) error {
	owner, err := h.store.UserByID(ctx, ownerID)
	if err != nil {
		h.logger.Warn("owner lookup failed", "user_id", ownerID, "error", err)
		return nil
	}
	msg := i18n.T(owner.Language, key)
	if len(args) > 0 {
		msg = i18n.Fill(msg, args)
	}
	if err := h.reply(ctx, owner.TelegramID, msg); err != nil {
		h.logger.Warn("owner notification failed", "user_id", ownerID, "error", err)
	}
	return nil
}
