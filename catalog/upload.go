package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file interface{}, folder string) (string, error)
}

// Uploader is set at startup; image uploads fail cleanly when unset.
var Uploader ImageUploader

type cloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an ImageUploader from a cloudinary:// URL.
func NewCloudinaryUploader(url string) (ImageUploader, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, err
	}
	return &cloudinaryUploader{cld: cld}, nil
}

func (u *cloudinaryUploader) Upload(ctx context.Context, file interface{}, folder string) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}

// UploadImage stores a package photo and appends its URL to the image list.
func UploadImage(c fiber.Ctx) error {
	usr, err := user.Current(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsStaff(usr.Role) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	if Uploader == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "image storage is not configured"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid package id"})
	}

	var p Package
	storage.DB.Limit(1).Find(&p, id)
	if p.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "failed to read image file"})
	}
	defer file.Close()

	url, err := Uploader.Upload(context.Background(), file, "packages")
	if err != nil {
		log.Error().Err(err).Uint("package_id", p.ID).Msg("image upload failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload image"})
	}

	images := append(decodeList(p.Images), url)
	if result := storage.DB.Model(&p).Update("images", encodeList(images)); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save image"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Image uploaded successfully",
		"url":     url,
		"images":  images,
	})
}
