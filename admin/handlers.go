// Package admin exposes the management surface: user administration,
// aggregate statistics and booking oversight. All routes are behind the
// admin guard.
package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/booking"
	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/review"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

func ListUsers(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	query := storage.DB.Model(&user.User{})

	if role := c.Query("role"); role != "" {
		if !user.Role(role).Valid() {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		wildcard := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", wildcard, wildcard)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list users"})
	}

	var users []user.User
	if result := query.Scopes(storage.Paginate(page, perPage)).Find(&users); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list users"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"users":        users,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}

func GetUser(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	var u user.User
	storage.DB.Limit(1).Find(&u, id)
	if u.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"user": u})
}

type UpdateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

func UpdateUser(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	var u user.User
	storage.DB.Limit(1).Find(&u, id)
	if u.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	req := new(UpdateUserRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username != nil && *req.Username != u.Username {
		var count int64
		storage.DB.Model(&user.User{}).Where("username = ? AND id != ?", *req.Username, u.ID).Count(&count)
		if count > 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Username already exists"})
		}
		u.Username = *req.Username
	}

	if req.Email != nil && *req.Email != u.Email {
		var count int64
		storage.DB.Model(&user.User{}).Where("email = ? AND id != ?", *req.Email, u.ID).Count(&count)
		if count > 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email already exists"})
		}
		u.Email = *req.Email
	}

	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}

	if req.Role != nil {
		if !user.Role(*req.Role).Valid() {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		u.Role = user.Role(*req.Role)
	}

	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if result := storage.DB.Save(&u); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update user"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    u,
	})
}

func setUserActive(c fiber.Ctx, active bool, message string) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	var u user.User
	storage.DB.Limit(1).Find(&u, id)
	if u.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if result := storage.DB.Model(&u).Update("is_active", active); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update user"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": message})
}

func ActivateUser(c fiber.Ctx) error {
	return setUserActive(c, true, "User activated successfully")
}

func DeactivateUser(c fiber.Ctx) error {
	return setUserActive(c, false, "User deactivated successfully")
}

func ListBookings(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	query := storage.DB.Model(&booking.Booking{})

	if status := c.Query("status"); status != "" {
		if !booking.Status(status).Valid() {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		query = query.Where("status = ?", status)
	}
	if userFilter := c.Query("user_id"); userFilter != "" {
		id, err := strconv.Atoi(userFilter)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id"})
		}
		query = query.Where("user_id = ?", id)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list bookings"})
	}

	var bookings []booking.Booking
	if result := query.Preload("Package").Preload("User").
		Scopes(storage.Paginate(page, perPage)).
		Order("created_at desc").
		Find(&bookings); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list bookings"})
	}

	list := make([]fiber.Map, 0, len(bookings))
	for i := range bookings {
		list = append(list, booking.Serialize(&bookings[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"bookings":     list,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}

type BookingStatusRequest struct {
	Status *string `json:"status"`
}

func UpdateBookingStatus(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	var b booking.Booking
	storage.DB.Limit(1).Find(&b, id)
	if b.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	req := new(BookingStatusRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Status == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Status is required"})
	}

	next := booking.Status(*req.Status)
	if !next.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}
	if !booking.CanTransition(b.Status, next) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status transition"})
	}

	if result := storage.DB.Model(&b).Update("status", next); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update booking"})
	}

	storage.DB.Preload("Package").Preload("User").Limit(1).Find(&b, b.ID)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Booking status updated successfully",
		"booking": booking.Serialize(&b),
	})
}

// Stats aggregates counts and revenue with full-table scans, recomputed per
// request.
func Stats(c fiber.Ctx) error {
	var (
		totalUsers, activeUsers       int64
		totalPackages, activePackages int64
		totalBookings                 int64
		pendingBookings               int64
		confirmedBookings             int64
		completedBookings             int64
		cancelledBookings             int64
		totalReviews                  int64
		recentBookings                int64
		totalRevenue                  float64
	)

	storage.DB.Model(&user.User{}).Count(&totalUsers)
	storage.DB.Model(&user.User{}).Where("is_active = ?", true).Count(&activeUsers)
	storage.DB.Model(&catalog.Package{}).Count(&totalPackages)
	storage.DB.Model(&catalog.Package{}).Where("is_active = ?", true).Count(&activePackages)
	storage.DB.Model(&booking.Booking{}).Count(&totalBookings)
	storage.DB.Model(&booking.Booking{}).Where("status = ?", booking.StatusPending).Count(&pendingBookings)
	storage.DB.Model(&booking.Booking{}).Where("status = ?", booking.StatusConfirmed).Count(&confirmedBookings)
	storage.DB.Model(&booking.Booking{}).Where("status = ?", booking.StatusCompleted).Count(&completedBookings)
	storage.DB.Model(&booking.Booking{}).Where("status = ?", booking.StatusCancelled).Count(&cancelledBookings)
	storage.DB.Model(&review.Review{}).Count(&totalReviews)

	storage.DB.Raw(
		"SELECT COALESCE(SUM(total_amount), 0) FROM bookings WHERE status = ?",
		booking.StatusCompleted,
	).Scan(&totalRevenue)

	thirtyDaysAgo := time.Now().UTC().AddDate(0, 0, -30)
	storage.DB.Model(&booking.Booking{}).Where("created_at >= ?", thirtyDaysAgo).Count(&recentBookings)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"users": fiber.Map{
			"total":    totalUsers,
			"active":   activeUsers,
			"inactive": totalUsers - activeUsers,
		},
		"packages": fiber.Map{
			"total":    totalPackages,
			"active":   activePackages,
			"inactive": totalPackages - activePackages,
		},
		"bookings": fiber.Map{
			"total":          totalBookings,
			"pending":        pendingBookings,
			"confirmed":      confirmedBookings,
			"completed":      completedBookings,
			"cancelled":      cancelledBookings,
			"recent_30_days": recentBookings,
		},
		"reviews": fiber.Map{
			"total": totalReviews,
		},
		"revenue": fiber.Map{
			"total": totalRevenue,
		},
	})
}

func ListReviews(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	query := storage.DB.Model(&review.Review{})

	if packageFilter := c.Query("package_id"); packageFilter != "" {
		id, err := strconv.Atoi(packageFilter)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package_id"})
		}
		query = query.Where("package_id = ?", id)
	}
	if userFilter := c.Query("user_id"); userFilter != "" {
		id, err := strconv.Atoi(userFilter)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user_id"})
		}
		query = query.Where("user_id = ?", id)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reviews"})
	}

	var reviews []review.Review
	if result := query.Preload("User").Scopes(storage.Paginate(page, perPage)).Find(&reviews); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reviews"})
	}

	list := make([]fiber.Map, 0, len(reviews))
	for i := range reviews {
		list = append(list, review.Serialize(&reviews[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"reviews":      list,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}
