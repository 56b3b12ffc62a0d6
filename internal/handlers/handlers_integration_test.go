package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"taskmanager/internal/handlers"
	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/repositories"
	"taskmanager/internal/security"
	"taskmanager/internal/services"
)

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// setupApp assembles the full API over an isolated in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		t.Fatalf("failed to auto-migrate database: %v", err)
	}

	uowFactory := repositories.NewGormUnitOfWorkFactory(db)
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	tokens := security.NewTokenManager(security.TokenConfig{
		Secret:   "test_jwt_secret",
		Issuer:   "taskmanager-test",
		Audience: "taskmanager-test-clients",
		TTL:      time.Hour,
	})

	authService := services.NewAuthService(uowFactory, hasher, tokens)
	taskService := services.NewTaskService(uowFactory, nil) // nil RabbitMQ client

	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)

	app := fiber.New()
	api := app.Group("/api")

	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(tokens))
	taskHandler.RegisterRoutes(protected)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

func registerUser(t *testing.T, app *fiber.App, name, email, password string) models.AuthResponse {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var auth models.AuthResponse
	decodeBody(t, resp, &auth)
	assert.NotEmpty(t, auth.Token)
	assert.NotEmpty(t, auth.UserID)
	return auth
}

func createTask(t *testing.T, app *fiber.App, token, title string) models.TaskView {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/tasks/", token, map[string]interface{}{
		"title":       title,
		"description": "integration test task",
		"status":      models.StatusPending,
		"remarks":     "",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var view models.TaskView
	decodeBody(t, resp, &view)
	assert.NotEmpty(t, view.ID)
	return view
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	auth := registerUser(t, app, "Test User", "Test@Example.com", "password123")
	assert.Equal(t, "test@example.com", auth.Email) // normalized
	assert.Equal(t, "Test User", auth.Name)

	// Duplicate registration, case-insensitively.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Someone Else",
		"email":    "TEST@EXAMPLE.COM",
		"password": "otherpassword",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Login succeeds with the right password.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var login models.AuthResponse
	decodeBody(t, resp, &login)
	assert.Equal(t, auth.UserID, login.UserID)
	assert.NotEmpty(t, login.Token)

	// Wrong password and unknown email both yield 401.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterValidation(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    "not-an-email",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Validation failed", body["message"])
}

func TestTaskEndpointsRequireAuth(t *testing.T) {
	app := setupApp(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/tasks/"},
		{http.MethodPost, "/api/tasks/"},
		{http.MethodGet, "/api/tasks/some-id"},
		{http.MethodPut, "/api/tasks/some-id"},
		{http.MethodDelete, "/api/tasks/some-id"},
		{http.MethodGet, "/api/tasks/search?q=x"},
	} {
		resp := doJSON(t, app, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
		resp.Body.Close()
	}

	// A garbage token is rejected as well.
	resp := doJSON(t, app, http.MethodGet, "/api/tasks/", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestTaskLifecycle(t *testing.T) {
	app := setupApp(t)
	auth := registerUser(t, app, "Alice", "alice@example.com", "password123")

	created := createTask(t, app, auth.Token, "Buy groceries")
	assert.Equal(t, auth.UserID, created.CreatedByUserID)
	assert.Equal(t, auth.UserID, created.UpdatedByUserID)
	assert.Equal(t, "Alice", created.CreatedByName)
	assert.Equal(t, "Alice", created.UpdatedByName)

	// Read it back.
	resp := doJSON(t, app, http.MethodGet, "/api/tasks/"+created.ID, auth.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.TaskView
	decodeBody(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Buy groceries", fetched.Title)

	// Update the title.
	resp = doJSON(t, app, http.MethodPut, "/api/tasks/"+created.ID, auth.Token, map[string]interface{}{
		"title":       "Buy groceries and fruit",
		"description": "integration test task",
		"status":      models.StatusInProgress,
		"remarks":     "",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.TaskView
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Buy groceries and fruit", updated.Title)
	assert.Equal(t, created.CreatedByUserID, updated.CreatedByUserID)
	assert.False(t, updated.UpdatedOn.Before(created.UpdatedOn))

	// Delete it, twice.
	resp = doJSON(t, app, http.MethodDelete, "/api/tasks/"+created.ID, auth.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/tasks/"+created.ID, auth.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/tasks/"+created.ID, auth.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestTaskUpdatedByAnotherUser(t *testing.T) {
	app := setupApp(t)
	alice := registerUser(t, app, "Alice", "alice@example.com", "password123")
	bob := registerUser(t, app, "Bob", "bob@example.com", "password456")

	created := createTask(t, app, alice.Token, "Shared task")

	resp := doJSON(t, app, http.MethodPut, "/api/tasks/"+created.ID, bob.Token, map[string]interface{}{
		"title":       "Shared task",
		"description": "now maintained by bob",
		"status":      models.StatusInProgress,
		"remarks":     "",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.TaskView
	decodeBody(t, resp, &updated)

	assert.Equal(t, alice.UserID, updated.CreatedByUserID)
	assert.Equal(t, "Alice", updated.CreatedByName)
	assert.Equal(t, bob.UserID, updated.UpdatedByUserID)
	assert.Equal(t, "Bob", updated.UpdatedByName)
}

func TestTaskValidation(t *testing.T) {
	app := setupApp(t)
	auth := registerUser(t, app, "Alice", "alice@example.com", "password123")

	// Missing title.
	resp := doJSON(t, app, http.MethodPost, "/api/tasks/", auth.Token, map[string]interface{}{
		"description": "no title",
		"status":      models.StatusPending,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Status outside the closed set.
	resp = doJSON(t, app, http.MethodPost, "/api/tasks/", auth.Token, map[string]interface{}{
		"title":  "Bad status",
		"status": "Archived",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestTaskSearch(t *testing.T) {
	app := setupApp(t)
	auth := registerUser(t, app, "Alice", "alice@example.com", "password123")

	createTask(t, app, auth.Token, "Buy Groceries")
	createTask(t, app, auth.Token, "Walk the dog")

	// Case-insensitive substring match on a single task.
	resp := doJSON(t, app, http.MethodGet, "/api/tasks/search?q=groc", auth.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result models.TaskSearchResult
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.TotalCount)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, "Buy Groceries", result.Items[0].Title)
	assert.Equal(t, "Alice", result.Items[0].CreatedByName)

	// Empty query returns the full listing.
	resp = doJSON(t, app, http.MethodGet, "/api/tasks/search?q=", auth.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.Equal(t, 2, result.TotalCount)
	assert.Len(t, result.Items, 2)

	// GET /tasks matches the empty search.
	resp = doJSON(t, app, http.MethodGet, "/api/tasks/", auth.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.TaskView
	decodeBody(t, resp, &all)
	assert.Len(t, all, 2)
}
