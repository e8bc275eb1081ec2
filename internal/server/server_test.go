package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/bazarbot/internal/bot"
	"github.com/markb/bazarbot/internal/db"
	"github.com/markb/bazarbot/internal/migration"
	"github.com/markb/bazarbot/internal/migrations"
	"github.com/markb/bazarbot/internal/storage"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

const (
	testToken         = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
	testWebhookSecret = "hook-secret"
)

func setupServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := migration.NewRepository(migrations.All())
	require.NoError(t, err)
	_, err = migration.NewRunner(database.DB, repo).Migrate(context.Background())
	require.NoError(t, err)

	// Telegram API stub; the bot acknowledges whatever it sends.
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":1,"type":"private"}}}`))
	}))
	t.Cleanup(api.Close)

	tg := telegram.NewClient(testToken, telegram.WithBaseURL(api.URL))
	st := store.New(database.DB)
	photos := storage.NewServiceWithBackend(mustLocalBackend(t))
	botHandler := bot.New(st, tg, photos, bot.Config{}, nil)

	srv := New(database, tg, botHandler, photos, Config{
		JWTSecret:     "test-jwt-secret",
		WebhookSecret: testWebhookSecret,
	})
	return srv, st
}

func mustLocalBackend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return b
}

func signedInitData(t *testing.T, telegramID int64) string {
	t.Helper()
	userJSON, err := json.Marshal(map[string]any{
		"id": telegramID, "first_name": "Aziz", "username": "aziz", "language_code": "ru",
	})
	require.NoError(t, err)

	values := url.Values{}
	values.Set("user", string(userJSON))
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("query_id", "AAE1")
	return telegram.SignInitData(values, testToken)
}

func authToken(t *testing.T, srv *Server) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"init_data": signedInitData(t, 100)})
	req := httptest.NewRequest("POST", "/api/v1/auth/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	srv, _ := setupServer(t)

	update := []byte(`{"update_id":1}`)
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(update))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest("POST", "/webhook", bytes.NewReader(update))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", testWebhookSecret)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookDispatchesToBot(t *testing.T) {
	srv, st := setupServer(t)

	update, _ := json.Marshal(telegram.Update{
		UpdateID: 7,
		Message: &telegram.Message{
			From: &telegram.User{ID: 555, FirstName: "Aziz", LanguageCode: "ru"},
			Chat: telegram.Chat{ID: 555, Type: "private"},
			Text: "/start",
		},
	})
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(update))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", testWebhookSecret)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The bot registered the user.
	u, err := st.UserByTelegramID(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "Aziz", u.FirstName)
}

func TestAuthValidate(t *testing.T) {
	srv, st := setupServer(t)
	token := authToken(t, srv)
	assert.NotEmpty(t, token)

	u, err := st.UserByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "ru", u.Language)
}

func TestAuthValidateRejectsTamperedData(t *testing.T) {
	srv, _ := setupServer(t)

	body, _ := json.Marshal(map[string]string{"init_data": "user=%7B%22id%22%3A1%7D&hash=deadbeef"})
	req := httptest.NewRequest("POST", "/api/v1/auth/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListAdvertisements(t *testing.T) {
	srv, st := setupServer(t)
	token := authToken(t, srv)

	body, _ := json.Marshal(map[string]any{
		"category_id": 1, "brand_id": 1, "model": "iPhone 13",
		"price": 5000000, "description": "Almost new, bought last year", "city": "Tashkent",
	})
	req := httptest.NewRequest("POST", "/api/v1/advertisements", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created adResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, store.StatusPending, created.Status)

	// Pending ads are invisible in the public listing.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/advertisements?brand_id=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []adResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed)

	// After approval they show up.
	require.NoError(t, st.ApproveAdvertisement(context.Background(), created.ID))
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/advertisements?brand_id=1", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "iPhone 13", listed[0].Model)

	// But they stay visible to the owner.
	req = httptest.NewRequest("GET", "/api/v1/my/advertisements", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestMarkSoldRequiresOwnership(t *testing.T) {
	srv, st := setupServer(t)
	token := authToken(t, srv)
	ctx := context.Background()

	other, err := st.GetOrCreateUser(ctx, 200, "Other", "other", "ru")
	require.NoError(t, err)
	adID, err := st.CreateAdvertisement(ctx, &store.Advertisement{
		UserID: other.ID, CategoryID: 1, BrandID: 1,
		Model: "Galaxy S22", Price: 4000000, Description: "Good condition phone",
	})
	require.NoError(t, err)
	require.NoError(t, st.ApproveAdvertisement(ctx, adID))

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/advertisements/%d/sold", adID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/my/advertisements", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("GET", "/api/v1/my/advertisements", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPhotoUploadAndServe(t *testing.T) {
	srv, _ := setupServer(t)
	token := authToken(t, srv)

	req := httptest.NewRequest("POST", "/api/v1/photos", bytes.NewReader([]byte("fake-png-bytes")))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		PhotoPath string `json:"photo_path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.PhotoPath)

	key := resp.PhotoPath[len("photos/"):]
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/photos/"+key, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "fake-png-bytes", rec.Body.String())
}

func TestValidateDomain(t *testing.T) {
	assert.NoError(t, ValidateDomain("bazarbot.example.com"))
	assert.Error(t, ValidateDomain(""))
	assert.Error(t, ValidateDomain("localhost"))
	assert.Error(t, ValidateDomain("192.168.1.1"))
	assert.Error(t, ValidateDomain(".example.com"))
	assert.Error(t, ValidateDomain("bad..domain"))
}
