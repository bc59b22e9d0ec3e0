package review

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/booking"
	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

type CreateRequest struct {
	PackageID uint   `json:"package_id"`
	Rating    *int   `json:"rating"`
	Comment   string `json:"comment"`
}

func Create(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	req := new(CreateRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.PackageID == 0 || req.Rating == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "package_id and rating are required"})
	}

	if !validRating(*req.Rating) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be an integer between 1 and 5"})
	}

	var pkg catalog.Package
	storage.DB.Limit(1).Find(&pkg, req.PackageID)
	if pkg.ID == 0 || !pkg.IsActive {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found or inactive"})
	}

	var completed int64
	storage.DB.Model(&booking.Booking{}).
		Where("user_id = ? AND package_id = ? AND status = ?", userID, pkg.ID, booking.StatusCompleted).
		Count(&completed)
	if completed == 0 {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "You can only review packages you have completed"})
	}

	// uniqueness is a lookup, not a schema constraint
	var existing int64
	storage.DB.Model(&Review{}).Where("user_id = ? AND package_id = ?", userID, pkg.ID).Count(&existing)
	if existing > 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "You have already reviewed this package"})
	}

	r := &Review{
		UserID:    userID,
		PackageID: pkg.ID,
		Rating:    *req.Rating,
		Comment:   req.Comment,
	}

	if result := storage.DB.Create(r); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create review"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Review created successfully",
		"review":  Serialize(r),
	})
}

func ListByPackage(c fiber.Ctx) error {
	packageID, err := strconv.Atoi(c.Params("packageId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid package id"})
	}

	var pkg catalog.Package
	storage.DB.Limit(1).Find(&pkg, packageID)
	if pkg.ID == 0 || !pkg.IsActive {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found or inactive"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	var total int64
	storage.DB.Model(&Review{}).Where("package_id = ?", packageID).Count(&total)

	var reviews []Review
	if result := storage.DB.Preload("User").Where("package_id = ?", packageID).
		Scopes(storage.Paginate(page, perPage)).Find(&reviews); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reviews"})
	}

	var avg float64
	storage.DB.Raw("SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE package_id = ?", packageID).Scan(&avg)

	list := make([]fiber.Map, 0, len(reviews))
	for i := range reviews {
		list = append(list, Serialize(&reviews[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"reviews":        list,
		"average_rating": math.Round(avg*10) / 10,
		"total_reviews":  total,
		"total":          total,
		"pages":          storage.Pages(total, perPage),
		"current_page":   page,
		"per_page":       perPage,
	})
}

func ListMine(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	var total int64
	storage.DB.Model(&Review{}).Where("user_id = ?", userID).Count(&total)

	var reviews []Review
	if result := storage.DB.Where("user_id = ?", userID).
		Scopes(storage.Paginate(page, perPage)).Find(&reviews); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reviews"})
	}

	list := make([]fiber.Map, 0, len(reviews))
	for i := range reviews {
		list = append(list, Serialize(&reviews[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"reviews":      list,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}

func Get(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid review id"})
	}

	var r Review
	storage.DB.Preload("User").Limit(1).Find(&r, id)
	if r.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"review": Serialize(&r)})
}

type UpdateRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func Update(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid review id"})
	}

	var r Review
	storage.DB.Limit(1).Find(&r, id)
	if r.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
	}

	if r.UserID != user.TokenUserID(c) && !user.IsAdmin(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	req := new(UpdateRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Rating != nil {
		if !validRating(*req.Rating) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be an integer between 1 and 5"})
		}
		r.Rating = *req.Rating
	}
	if req.Comment != nil {
		r.Comment = *req.Comment
	}

	if result := storage.DB.Save(&r); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update review"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Review updated successfully",
		"review":  Serialize(&r),
	})
}

func Delete(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid review id"})
	}

	var r Review
	storage.DB.Limit(1).Find(&r, id)
	if r.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
	}

	if r.UserID != user.TokenUserID(c) && !user.IsAdmin(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	if result := storage.DB.Delete(&r); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete review"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Review deleted successfully"})
}
