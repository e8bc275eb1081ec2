// Package i18n holds bazarbot's message catalogs for Russian, Uzbek, and
// English. Russian is the fallback language.
package i18n

import "strings"

const DefaultLanguage = "ru"

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

// Normalize maps a Telegram language_code to a supported catalog language.
func Normalize(code string) string {
	lang := strings.ToLower(code)
	if i := strings.Index(lang, "-"); i > 0 {
		lang = lang[:i]
	}
	if Supported(lang) {
		return lang
	}
	return DefaultLanguage
}

// T returns the message for key in lang, falling back to Russian and then to
// the key itself so a missing translation stays visible instead of blank.
func T(lang, key string) string {
	if c, ok := catalogs[lang]; ok {
		if msg, ok := c[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

var catalogs = map[string]map[string]string{
	"ru": {
		"main_menu":             "🏠 Главное меню\n\nВыберите действие:",
		"sell_button":           "💰 Продать",
		"buy_button":            "🛒 Купить",
		"my_ads":                "📋 Мои объявления",
		"my_favorites":          "❤️ Избранное",
		"language_button":       "🌐 Язык",
		"help_button":           "❓ Помощь",
		"select_category_sell":  "📂 Выберите категорию для продажи:",
		"select_category_buy":   "🔍 Выберите категорию для поиска:",
		"select_brand":          "🏷️ Выберите бренд:",
		"select_language":       "🌐 Выберите язык:",
		"enter_model":           "📱 Введите модель устройства:",
		"enter_price":           "💰 Введите цену (в сумах):",
		"enter_description":     "📝 Введите описание (минимум 10 символов):",
		"enter_city":            "🏙️ Введите город:",
		"send_photo":            "📸 Отправьте фото товара:",
		"send_phone":            "📞 Поделитесь контактом или введите номер телефона:",
		"back_button":           "⬅️ Назад",
		"home_button":           "🏠 Главная",
		"ad_created_success":    "✅ Объявление успешно создано и отправлено на модерацию!",
		"payment_instructions":  "💳 Переведите {price} сум на карту:\n\n{card_number}\n\nПосле оплаты отправьте чек.",
		"language_changed":      "✅ Язык изменен!",
		"found_ads":             "📋 Найдено объявлений: {count}",
		"no_ads_found":          "😔 Объявления не найдены",
		"no_brands":             "❌ Бренды не найдены",
		"invalid_price":         "❌ Неверная цена. Введите число больше 0.",
		"description_too_short": "❌ Описание слишком короткое. Минимум 10 символов.",
		"unknown_command":       "❌ Неизвестная команда",
		"help_message":          "ℹ️ Бот для купли-продажи техники.\n\n💰 Продать — разместить объявление\n🛒 Купить — найти объявления\n📋 Мои объявления — ваши объявления\n❤️ Избранное — сохраненные объявления",
		"ad_approved":           "✅ Ваше объявление одобрено и опубликовано!",
		"ad_rejected":           "❌ Ваше объявление отклонено.\nПричина: {reason}",
	},
	"uz": {
		"main_menu":             "🏠 Asosiy menyu\n\nAmalni tanlang:",
		"sell_button":           "💰 Sotish",
		"buy_button":            "🛒 Sotib olish",
		"my_ads":                "📋 Mening e'lonlarim",
		"my_favorites":          "❤️ Sevimlilar",
		"language_button":       "🌐 Til",
		"help_button":           "❓ Yordam",
		"select_category_sell":  "📂 Sotish uchun kategoriyani tanlang:",
		"select_category_buy":   "🔍 Qidirish uchun kategoriyani tanlang:",
		"select_brand":          "🏷️ Brendni tanlang:",
		"select_language":       "🌐 Tilni tanlang:",
		"enter_model":           "📱 Qurilma modelini kiriting:",
		"enter_price":           "💰 Narxni kiriting (so'mda):",
		"enter_description":     "📝 Tavsifni kiriting (kamida 10 belgi):",
		"enter_city":            "🏙️ Shaharni kiriting:",
		"send_photo":            "📸 Mahsulot rasmini yuboring:",
		"send_phone":            "📞 Kontakt bilan bo'lishing yoki telefon raqamini kiriting:",
		"back_button":           "⬅️ Orqaga",
		"home_button":           "🏠 Bosh sahifa",
		"ad_created_success":    "✅ E'lon muvaffaqiyatli yaratildi va moderatsiyaga yuborildi!",
		"payment_instructions":  "💳 {price} so'mni karta raqamiga o'tkazing:\n\n{card_number}\n\nTo'lovdan keyin chekni yuboring.",
		"language_changed":      "✅ Til o'zgartirildi!",
		"found_ads":             "📋 Topilgan e'lonlar: {count}",
		"no_ads_found":          "😔 E'lonlar topilmadi",
		"no_brands":             "❌ Brendlar topilmadi",
		"invalid_price":         "❌ Noto'g'ri narx. 0dan katta raqam kiriting.",
		"description_too_short": "❌ Tavsif juda qisqa. Kamida 10 belgi.",
		"unknown_command":       "❌ Noma'lum buyruq",
		"help_message":          "ℹ️ Texnika oldi-sotdi boti.\n\n💰 Sotish — e'lon joylashtirish\n🛒 Sotib olish — e'lonlarni topish\n📋 Mening e'lonlarim — sizning e'lonlaringiz\n❤️ Sevimlilar — saqlangan e'lonlar",
		"ad_approved":           "✅ E'loningiz tasdiqlandi va chop etildi!",
		"ad_rejected":           "❌ E'loningiz rad etildi.\nSabab: {reason}",
	},
	"en": {
		"main_menu":             "🏠 Main menu\n\nChoose an action:",
		"sell_button":           "💰 Sell",
		"buy_button":            "🛒 Buy",
		"my_ads":                "📋 My ads",
		"my_favorites":          "❤️ Favorites",
		"language_button":       "🌐 Language",
		"help_button":           "❓ Help",
		"select_category_sell":  "📂 Choose a category to sell in:",
		"select_category_buy":   "🔍 Choose a category to search:",
		"select_brand":          "🏷️ Choose a brand:",
		"select_language":       "🌐 Choose a language:",
		"enter_model":           "📱 Enter the device model:",
		"enter_price":           "💰 Enter the price (in sum):",
		"enter_description":     "📝 Enter a description (at least 10 characters):",
		"enter_city":            "🏙️ Enter your city:",
		"send_photo":            "📸 Send a photo of the item:",
		"send_phone":            "📞 Share your contact or type a phone number:",
		"back_button":           "⬅️ Back",
		"home_button":           "🏠 Home",
		"ad_created_success":    "✅ Your ad was created and sent for moderation!",
		"payment_instructions":  "💳 Transfer {price} sum to card:\n\n{card_number}\n\nSend the receipt after payment.",
		"language_changed":      "✅ Language changed!",
		"found_ads":             "📋 Ads found: {count}",
		"no_ads_found":          "😔 No ads found",
		"no_brands":             "❌ No brands found",
		"invalid_price":         "❌ Invalid price. Enter a number greater than 0.",
		"description_too_short": "❌ Description is too short. At least 10 characters.",
		"unknown_command":       "❌ Unknown command",
		"help_message":          "ℹ️ A marketplace bot for electronics.\n\n💰 Sell — post an ad\n🛒 Buy — browse ads\n📋 My ads — your listings\n❤️ Favorites — saved ads",
		"ad_approved":           "✅ Your ad was approved and published!",
		"ad_rejected":           "❌ Your ad was rejected.\nReason: {reason}",
	},
}

// Fill substitutes {name} placeholders in a catalog message.
func Fill(msg string, args map[string]string) string {
	for k, v := range args {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}
