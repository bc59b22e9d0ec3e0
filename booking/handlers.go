package booking

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

type CreateRequest struct {
	PackageID         uint   `json:"package_id"`
	BookingDate       string `json:"booking_date"`
	NumberOfTravelers int    `json:"number_of_travelers"`
	SpecialRequests   string `json:"special_requests"`
}

func Create(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	req := new(CreateRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.PackageID == 0 || req.BookingDate == "" || req.NumberOfTravelers == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "package_id, booking_date and number_of_travelers are required"})
	}

	var pkg catalog.Package
	storage.DB.Limit(1).Find(&pkg, req.PackageID)
	if pkg.ID == 0 || !pkg.IsActive {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found or inactive"})
	}

	bookingDate, err := time.Parse(time.DateOnly, req.BookingDate)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking_date format. Use YYYY-MM-DD"})
	}

	if bookingDate.Before(pkg.AvailableFrom) || bookingDate.After(pkg.AvailableTo) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Booking date is outside package availability"})
	}

	today, _ := time.Parse(time.DateOnly, time.Now().UTC().Format(time.DateOnly))
	if bookingDate.Before(today) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Cannot book for past dates"})
	}

	// traveler count is checked against a single booking only; cumulative
	// capacity across bookings for the same date is not tracked
	if req.NumberOfTravelers > pkg.MaxTravelers {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Maximum %d travelers allowed", pkg.MaxTravelers)})
	}
	if req.NumberOfTravelers <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Number of travelers must be greater than 0"})
	}

	b := &Booking{
		UserID:            userID,
		PackageID:         pkg.ID,
		BookingDate:       bookingDate,
		NumberOfTravelers: req.NumberOfTravelers,
		TotalAmount:       pkg.Price * float64(req.NumberOfTravelers),
		Status:            StatusPending,
		SpecialRequests:   req.SpecialRequests,
	}

	if result := storage.DB.Create(b); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create booking"})
	}

	b.Package = pkg

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Booking created successfully",
		"booking": Serialize(b),
	})
}

func ListMine(c fiber.Ctx) error {
	userID := user.TokenUserID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	query := storage.DB.Model(&Booking{}).Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		if !Status(status).Valid() {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		query = query.Where("status = ?", status)
	}

	return listBookings(c, query, page, perPage)
}

// ListAll returns every booking; travel agents and admins only.
func ListAll(c fiber.Ctx) error {
	if !user.IsStaff(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	query := storage.DB.Model(&Booking{})

	if status := c.Query("status"); status != "" {
		if !Status(status).Valid() {
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

	return listBookings(c, query, page, perPage)
}

func listBookings(c fiber.Ctx, query *gorm.DB, page, perPage int) error {
	var total int64
	if result := query.Count(&total); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list bookings"})
	}

	var bookings []Booking
	if result := query.Preload("Package").Preload("User").
		Scopes(storage.Paginate(page, perPage)).
		Order("created_at desc").
		Find(&bookings); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list bookings"})
	}

	list := make([]fiber.Map, 0, len(bookings))
	for i := range bookings {
		list = append(list, Serialize(&bookings[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"bookings":     list,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}

func Get(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	var b Booking
	storage.DB.Preload("Package").Preload("User").Limit(1).Find(&b, id)
	if b.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	if b.UserID != user.TokenUserID(c) && !user.IsStaff(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"booking": Serialize(&b)})
}

type UpdateRequest struct {
	SpecialRequests *string `json:"special_requests"`
	Status          *string `json:"status"`
}

func Update(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	var b Booking
	storage.DB.Limit(1).Find(&b, id)
	if b.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	role := user.TokenRole(c)
	if b.UserID != user.TokenUserID(c) && !user.IsStaff(role) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	req := new(UpdateRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.SpecialRequests != nil {
		b.SpecialRequests = *req.SpecialRequests
	}

	// only agents and admins may move the status
	if req.Status != nil && user.IsStaff(role) {
		next := Status(*req.Status)
		if !next.Valid() {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		if next != b.Status {
			if !CanTransition(b.Status, next) {
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status transition"})
			}
			b.Status = next
		}
	}

	if result := storage.DB.Save(&b); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update booking"})
	}

	storage.DB.Preload("Package").Preload("User").Limit(1).Find(&b, b.ID)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Booking updated successfully",
		"booking": Serialize(&b),
	})
}

func Cancel(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	var b Booking
	storage.DB.Limit(1).Find(&b, id)
	if b.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	if b.UserID != user.TokenUserID(c) && !user.IsStaff(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	if b.Status == StatusCancelled {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Booking is already cancelled"})
	}
	if b.Status == StatusCompleted {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Cannot cancel completed booking"})
	}

	if result := storage.DB.Model(&b).Update("status", StatusCancelled); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to cancel booking"})
	}

	storage.DB.Preload("Package").Preload("User").Limit(1).Find(&b, b.ID)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Booking cancelled successfully",
		"booking": Serialize(&b),
	})
}
