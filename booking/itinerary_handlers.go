package booking

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

func itineraryBookingAccess(c fiber.Ctx, bookingID int) (*Booking, int, string) {
	var b Booking
	storage.DB.Limit(1).Find(&b, bookingID)
	if b.ID == 0 {
		return nil, http.StatusNotFound, "Booking not found"
	}

	if b.UserID != user.TokenUserID(c) && !user.IsAdmin(user.TokenRole(c)) {
		return nil, http.StatusForbidden, "Unauthorized"
	}

	return &b, 0, ""
}

func ListItineraries(c fiber.Ctx) error {
	bookingID, err := strconv.Atoi(c.Params("bookingId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	if _, status, msg := itineraryBookingAccess(c, bookingID); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	var itineraries []Itinerary
	if result := storage.DB.Where("booking_id = ?", bookingID).Order("day_number").Find(&itineraries); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list itineraries"})
	}

	list := make([]fiber.Map, 0, len(itineraries))
	for i := range itineraries {
		list = append(list, SerializeItinerary(&itineraries[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"itineraries": list})
}

type ItineraryRequest struct {
	DayNumber     *int     `json:"day_number"`
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Activities    []string `json:"activities"`
	Accommodation *string  `json:"accommodation"`
	Meals         *string  `json:"meals"`
}

func CreateItinerary(c fiber.Ctx) error {
	bookingID, err := strconv.Atoi(c.Params("bookingId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	b, status, msg := itineraryBookingAccess(c, bookingID)
	if status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	req := new(ItineraryRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.DayNumber == nil || req.Title == nil || *req.Title == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Day number and title are required"})
	}

	it := &Itinerary{
		BookingID: b.ID,
		DayNumber: *req.DayNumber,
		Title:     *req.Title,
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.Accommodation != nil {
		it.Accommodation = *req.Accommodation
	}
	if req.Meals != nil {
		it.Meals = *req.Meals
	}
	if len(req.Activities) > 0 {
		encoded, _ := json.Marshal(req.Activities)
		it.Activities = string(encoded)
	}

	if result := storage.DB.Create(it); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create itinerary"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":   "Itinerary created successfully",
		"itinerary": SerializeItinerary(it),
	})
}

func UpdateItinerary(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid itinerary id"})
	}

	var it Itinerary
	storage.DB.Limit(1).Find(&it, id)
	if it.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Itinerary not found"})
	}

	if _, status, msg := itineraryBookingAccess(c, int(it.BookingID)); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	req := new(ItineraryRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.DayNumber != nil {
		it.DayNumber = *req.DayNumber
	}
	if req.Title != nil {
		it.Title = *req.Title
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.Accommodation != nil {
		it.Accommodation = *req.Accommodation
	}
	if req.Meals != nil {
		it.Meals = *req.Meals
	}
	if req.Activities != nil {
		encoded, _ := json.Marshal(req.Activities)
		it.Activities = string(encoded)
	}

	if result := storage.DB.Save(&it); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update itinerary"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":   "Itinerary updated successfully",
		"itinerary": SerializeItinerary(&it),
	})
}

func DeleteItinerary(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid itinerary id"})
	}

	var it Itinerary
	storage.DB.Limit(1).Find(&it, id)
	if it.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Itinerary not found"})
	}

	if _, status, msg := itineraryBookingAccess(c, int(it.BookingID)); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	if result := storage.DB.Delete(&it); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete itinerary"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Itinerary deleted successfully"})
}
