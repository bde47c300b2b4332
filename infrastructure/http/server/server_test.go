package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/glucon/glucon-api/application/usecase"
	"github.com/glucon/glucon-api/infrastructure/adapter/sqlite"
	"github.com/glucon/glucon-api/infrastructure/config"
	"github.com/glucon/glucon-api/infrastructure/service/imagestore"
	"github.com/glucon/glucon-api/infrastructure/service/jwt"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
	"github.com/glucon/glucon-api/infrastructure/service/password"
	"github.com/glucon/glucon-api/infrastructure/service/ratelimit"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	images, err := imagestore.NewLocalImageStore(t.TempDir())
	require.NoError(t, err)

	tokens, err := jwt.NewJWTService(&config.Config{
		JWTSecret:    "test-secret",
		JWTAlgorithm: "HS256",
		TokenTTL:     30 * 24 * time.Hour,
	})
	require.NoError(t, err)

	log := logger.NewNopLogger()
	limiter := ratelimit.NewNoopRateLimitService()

	authUseCase := usecase.NewAuthUseCase(
		sqlite.NewUserRepository(db),
		tokens,
		password.NewBcryptPasswordService(bcrypt.MinCost),
		limiter,
		usecase.LoginThrottle{},
		log,
	)
	recipeUseCase := usecase.NewRecipeUseCase(sqlite.NewRecipeRepository(db), images, log)

	return NewHandler(Dependencies{
		AuthUseCase:      authUseCase,
		RecipeUseCase:    recipeUseCase,
		TokenService:     tokens,
		RateLimitService: limiter,
		Logger:           log,
		MaxUploadBytes:   1 << 20,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email, pw string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/login", `{"email":"`+email+`","password":"`+pw+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), body.ExpiresAt, time.Minute)
	return body.Token
}

const aliceJSON = `{"first_name":"Alice","last_name":"Liddell","email":"a@x.io","password":"p1"}`

func TestAuthFlow(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/register", aliceJSON, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"created","id":1}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/register", aliceJSON, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"email exists"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/login", `{"email":"a@x.io","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/login", `{"email":"nobody@x.io","password":"p1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	token := login(t, h, "a@x.io", "p1")

	rec = doJSON(t, h, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"first_name":"Alice","last_name":"Liddell","email":"a@x.io"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/me", "", token[:len(token)-5])
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing token"}`, rec.Body.String())
}

func TestRegister_InvalidPayload(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing email", `{"first_name":"A","last_name":"B","password":"p"}`},
		{"blank password", `{"first_name":"A","last_name":"B","email":"a@x.io","password":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"invalid payload"}`, rec.Body.String())
		})
	}

	rec := doJSON(t, h, http.MethodPost, "/login", `{"email":"a@x.io"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DistinctIDs(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/register", aliceJSON, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/register", `{"first_name":"Bob","last_name":"B","email":"b@x.io","password":"p2"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"created","id":2}`, rec.Body.String())
}

func multipartRecipe(t *testing.T, title, content, filename string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("content", content))
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRecipeFlow(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/register", aliceJSON, "").Code)
	token := login(t, h, "a@x.io", "p1")

	body, contentType := multipartRecipe(t, "Soup", "Boil water", "../my soup.png", []byte("png-data"))
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"created","id":1}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/recipes/1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var recipe struct {
		ID      int64   `json:"id"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Image   *string `json:"image"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipe))
	assert.Equal(t, "Soup", recipe.Title)
	require.NotNil(t, recipe.Image)
	assert.True(t, strings.HasSuffix(*recipe.Image, "_my_soup.png"))

	rec = doJSON(t, h, http.MethodGet, "/images/"+*recipe.Image, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-data", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = doJSON(t, h, http.MethodGet, "/recipes", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doJSON(t, h, http.MethodGet, "/recipes/99", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/recipes/abc", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/images/missing.png", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipes_RequireAuth(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/recipes", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, contentType := multipartRecipe(t, "Soup", "Boil", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// nothing was written
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/register", aliceJSON, "").Code)
	token := login(t, h, "a@x.io", "p1")
	rec = doJSON(t, h, http.MethodGet, "/recipes", "", token)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateRecipe_MissingFields(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/register", aliceJSON, "").Code)
	token := login(t, h, "a@x.io", "p1")

	body, contentType := multipartRecipe(t, "Soup", "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/recipes", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid payload"}`, rec.Body.String())
}

func TestAdminCreateRecipe(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/register", aliceJSON, "").Code)
	token := login(t, h, "a@x.io", "p1")

	post := func(form string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/recipes", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post("title=Toast&content=Toast+bread")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Saved", rec.Body.String())

	rec = post("title=Toast")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input", rec.Body.String())
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
