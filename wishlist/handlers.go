package wishlist

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

func List(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	var entries []Entry
	if result := storage.DB.Preload("Package").
		Joins("JOIN travel_packages ON travel_packages.id = wishlist.package_id AND travel_packages.is_active = ?", true).
		Where("wishlist.user_id = ?", userID).
		Find(&entries); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load wishlist"})
	}

	list := make([]fiber.Map, 0, len(entries))
	for i := range entries {
		list = append(list, fiber.Map{
			"id":       entries[i].ID,
			"package":  catalog.Serialize(&entries[i].Package),
			"added_at": entries[i].AddedAt,
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":  true,
		"wishlist": list,
	})
}

type AddRequest struct {
	PackageID uint `json:"package_id"`
}

func Add(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	req := new(AddRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.PackageID == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Package ID is required"})
	}

	var pkg catalog.Package
	storage.DB.Limit(1).Find(&pkg, req.PackageID)
	if pkg.ID == 0 || !pkg.IsActive {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	var existing int64
	storage.DB.Model(&Entry{}).Where("user_id = ? AND package_id = ?", userID, pkg.ID).Count(&existing)
	if existing > 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Package already in wishlist"})
	}

	entry := &Entry{UserID: userID, PackageID: pkg.ID}
	if result := storage.DB.Create(entry); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to add to wishlist"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Added to wishlist successfully",
	})
}

func Remove(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	packageID, err := strconv.Atoi(c.Params("packageId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid package id"})
	}

	var entry Entry
	storage.DB.Where("user_id = ? AND package_id = ?", userID, packageID).Limit(1).Find(&entry)
	if entry.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not in wishlist"})
	}

	if result := storage.DB.Delete(&entry); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to remove from wishlist"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Removed from wishlist successfully",
	})
}
