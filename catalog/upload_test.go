package catalog

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, folder string) (string, error) {
	f.calls++
	return fmt.Sprintf("https://cdn.example.com/%s/img_%d.jpg", folder, f.calls), nil
}

func uploadRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "beach.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not-a-real-jpeg"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newUploadApp(u *user.User) *fiber.App {
	app := fiber.New()
	grp := app.Group("/api/packages")
	grp.Use(authAs(u))
	grp.Post("/:id/images", UploadImage)
	return app
}

func TestUploadImageAppendsURL(t *testing.T) {
	setupDB(t)
	agent := user.User{Username: "agent", Email: "agent@example.com", Password: "secret123", Role: user.RoleTravelAgent}
	require.NoError(t, storage.DB.Create(&agent).Error)
	p := seedPackage(t, "Goa Getaway", "Goa", 15000, true)

	fake := &fakeUploader{}
	Uploader = fake
	t.Cleanup(func() { Uploader = nil })

	app := newUploadApp(&agent)
	resp, err := app.Test(uploadRequest(t, fmt.Sprintf("/api/packages/%d/images", p.ID)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, fake.calls)

	var stored Package
	require.NoError(t, storage.DB.First(&stored, p.ID).Error)
	assert.Equal(t, []string{"https://cdn.example.com/packages/img_1.jpg"}, decodeList(stored.Images))
}

func TestUploadImageUnavailableWithoutUploader(t *testing.T) {
	setupDB(t)
	agent := user.User{Username: "agent", Email: "agent@example.com", Password: "secret123", Role: user.RoleTravelAgent}
	require.NoError(t, storage.DB.Create(&agent).Error)
	p := seedPackage(t, "Goa Getaway", "Goa", 15000, true)

	Uploader = nil
	app := newUploadApp(&agent)
	resp, err := app.Test(uploadRequest(t, fmt.Sprintf("/api/packages/%d/images", p.ID)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
