package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInitData is returned when Mini App init data fails HMAC
// verification or is structurally invalid.
var ErrInvalidInitData = errors.New("invalid init data")

// InitData is the verified payload a Mini App sends with each auth request.
type InitData struct {
	User     User
	AuthDate time.Time
	QueryID  string
}

// VerifyInitData checks a Mini App initData query string against the bot
// token per the Telegram WebApp auth scheme: the hash field must equal
// HMAC-SHA256 of the sorted key=value lines, keyed with
// HMAC-SHA256("WebAppData", token). maxAge > 0 additionally rejects stale
// auth_date values.
func VerifyInitData(initData, botToken string, maxAge time.Duration) (*InitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	var lines []string
	for key := range values {
		lines = append(lines, key+"="+values.Get(key))
	}
	sort.Strings(lines)
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(gotHash), []byte(wantHash)) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInvalidInitData)
	}

	out := &InitData{QueryID: values.Get("query_id")}

	if raw := values.Get("auth_date"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
		}
		out.AuthDate = time.Unix(unix, 0)
		if maxAge > 0 && time.Since(out.AuthDate) > maxAge {
			return nil, fmt.Errorf("%w: auth_date expired", ErrInvalidInitData)
		}
	}

	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &out.User); err != nil {
			return nil, fmt.Errorf("%w: bad user field", ErrInvalidInitData)
		}
	}
	if out.User.ID == 0 {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}
	return out, nil
}

// SignInitData produces a valid initData query string for the given values.
// Only tests use it; the inverse of VerifyInitData.
func SignInitData(values url.Values, botToken string) string {
	var lines []string
	for key := range values {
		lines = append(lines, key+"="+values.Get(key))
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}
