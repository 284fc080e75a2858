package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/database"
	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/middleware"
	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/internal/services"
	"github.com/shoplist/api/internal/session"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	metrics *metrics.Metrics
	audit   *services.AuditService
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 24)
		utils.ConfigureBcryptCost(bcrypt.MinCost)
	})

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	m := metrics.New()
	revoked := session.NewMemoryRevocationList()
	auditService := services.NewAuditService(db, 100)
	t.Cleanup(func() {
		auditService.Close()
		_ = sqlDB.Close()
	})

	identity := services.NewIdentityService(db)
	households := services.NewHouseholdRegistry(db)
	lists := services.NewListLedger(db)
	shopping := services.NewShoppingService(
		identity,
		households,
		lists,
		services.NewItemLedger(db),
		services.NewAccessService(db, households, lists, m),
		auditService,
		m,
	)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(m.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	router := &Router{
		Auth:       NewAuthHandler(identity, revoked, auditService, m),
		Households: NewHouseholdsHandler(shopping),
		Lists:      NewListsHandler(shopping),
		Items:      NewItemsHandler(shopping),
		Middleware: middleware.NewAuthMiddleware(db, revoked),
		Metrics:    m,
	}
	router.Register(app)

	return &testEnv{app: app, db: db, metrics: m, audit: auditService}
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@x.com",
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(utils.TokenSubject{ID: user.ID, Username: user.Username, Email: user.Email})
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %+v", body)
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected array data, got %+v", body)
	}
	return data
}

// createHousehold, createList and createItem go through the API so the
// same code paths as real clients are exercised.
func createHousehold(t *testing.T, env *testEnv, token, name string) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/households", map[string]any{"name": name}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataMap(t, decodeJSONMap(t, resp))["id"].(string)
}

func createList(t *testing.T, env *testEnv, token, householdID, name, date string) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/households/%s/lists", householdID),
		map[string]any{"name": name, "date": date}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataMap(t, decodeJSONMap(t, resp))["id"].(string)
}

func createItem(t *testing.T, env *testEnv, token, listID string, payload map[string]any) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/lists/%s/items", listID), payload, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	return dataMap(t, decodeJSONMap(t, resp))["id"].(string)
}
