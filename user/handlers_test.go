package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nomadiclabs/tripway/storage"
)

func setupDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	storage.DB = db
}

func authAs(u *User) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{
			"user_id": float64(u.ID),
			"role":    string(u.Role),
		}})
		return c.Next()
	}
}

func newApp(authed *User) *fiber.App {
	app := fiber.New()
	grp := app.Group("/api/auth")
	grp.Post("/register", Register)
	grp.Post("/login", Login)
	if authed != nil {
		grp.Use(authAs(authed))
		grp.Get("/me", Me)
		grp.Put("/profile", UpdateProfile)
		grp.Post("/change-password", ChangePassword)
	}
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterIssuesToken(t *testing.T) {
	setupDB(t)
	app := newApp(nil)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/register", fiber.Map{
		"username": "ravi",
		"email":    "ravi@example.com",
		"password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode(t, resp)
	assert.NotEmpty(t, body["access_token"])

	created := body["user"].(map[string]interface{})
	assert.Equal(t, "ravi", created["username"])
	assert.Equal(t, string(RoleEndUser), created["role"])
	assert.Nil(t, created["password"], "password must never be serialized")

	var stored User
	storage.DB.Where("username = ?", "ravi").First(&stored)
	assert.NotEqual(t, "secret123", stored.Password, "password must be stored hashed")
	assert.True(t, stored.CheckPassword("secret123"))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	setupDB(t)
	app := newApp(nil)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/register", fiber.Map{
		"username": "ravi", "email": "ravi@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/auth/register", fiber.Map{
		"username": "ravi", "email": "other@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username already exists", decode(t, resp)["error"])

	resp, err = app.Test(jsonRequest("POST", "/api/auth/register", fiber.Map{
		"username": "other", "email": "ravi@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already exists", decode(t, resp)["error"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	setupDB(t)
	app := newApp(nil)

	u := User{Username: "ravi", Email: "ravi@example.com", Password: "secret123"}
	require.NoError(t, storage.DB.Create(&u).Error)

	for _, body := range []fiber.Map{
		{"username": "ravi", "password": "wrong"},
		{"username": "nobody", "password": "secret123"},
	} {
		resp, err := app.Test(jsonRequest("POST", "/api/auth/login", body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid username or password", decode(t, resp)["error"])
	}
}

func TestLoginReturnsToken(t *testing.T) {
	setupDB(t)
	app := newApp(nil)

	u := User{Username: "ravi", Email: "ravi@example.com", Password: "secret123"}
	require.NoError(t, storage.DB.Create(&u).Error)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/login", fiber.Map{
		"username": "ravi", "password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode(t, resp)["access_token"])
}

func TestMe(t *testing.T) {
	setupDB(t)

	u := User{Username: "ravi", Email: "ravi@example.com", Password: "secret123"}
	require.NoError(t, storage.DB.Create(&u).Error)

	app := newApp(&u)
	resp, err := app.Test(jsonRequest("GET", "/api/auth/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, "ravi@example.com", me["email"])
}

func TestChangePassword(t *testing.T) {
	setupDB(t)

	u := User{Username: "ravi", Email: "ravi@example.com", Password: "secret123"}
	require.NoError(t, storage.DB.Create(&u).Error)

	app := newApp(&u)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/change-password", fiber.Map{
		"current_password": "wrong", "new_password": "newpass456",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/auth/change-password", fiber.Map{
		"current_password": "secret123", "new_password": "newpass456",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stored User
	storage.DB.First(&stored, u.ID)
	assert.True(t, stored.CheckPassword("newpass456"))
	assert.False(t, stored.CheckPassword("secret123"))
}

func TestUpdateProfileEmailUniqueness(t *testing.T) {
	setupDB(t)

	u := User{Username: "ravi", Email: "ravi@example.com", Password: "secret123"}
	other := User{Username: "asha", Email: "asha@example.com", Password: "secret123"}
	require.NoError(t, storage.DB.Create(&u).Error)
	require.NoError(t, storage.DB.Create(&other).Error)

	app := newApp(&u)
	resp, err := app.Test(jsonRequest("PUT", "/api/auth/profile", fiber.Map{
		"email": "asha@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already exists", decode(t, resp)["error"])
}
