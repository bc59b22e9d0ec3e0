package booking

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/user"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransition restricts moves to the directed status set: pending may
// confirm or cancel, confirmed may complete or cancel, terminal states move
// nowhere.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

type Booking struct {
	ID                uint      `json:"id" gorm:"primarykey"`
	UserID            uint      `json:"user_id" gorm:"not null;index"`
	PackageID         uint      `json:"package_id" gorm:"not null;index"`
	BookingDate       time.Time `json:"-" gorm:"type:date;not null"`
	NumberOfTravelers int       `json:"number_of_travelers" gorm:"not null"`
	TotalAmount       float64   `json:"total_amount" gorm:"not null"`
	Status            Status    `json:"status" gorm:"size:20;default:pending;not null"`
	SpecialRequests   string    `json:"special_requests"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	User    user.User       `json:"-" gorm:"foreignKey:UserID"`
	Package catalog.Package `json:"-" gorm:"foreignKey:PackageID"`
}

// Serialize renders a booking for the wire, inlining user and package when
// they were preloaded.
func Serialize(b *Booking) fiber.Map {
	out := fiber.Map{
		"id":                  b.ID,
		"user_id":             b.UserID,
		"package_id":          b.PackageID,
		"booking_date":        b.BookingDate.Format(time.DateOnly),
		"number_of_travelers": b.NumberOfTravelers,
		"total_amount":        b.TotalAmount,
		"status":              b.Status,
		"special_requests":    b.SpecialRequests,
		"created_at":          b.CreatedAt,
		"updated_at":          b.UpdatedAt,
	}

	if b.Package.ID != 0 {
		out["package"] = catalog.Serialize(&b.Package)
	}
	if b.User.ID != 0 {
		out["user"] = b.User
	}

	return out
}

// Itinerary is a single day of a booking's plan. DayNumber uniqueness within
// a booking is advisory, not enforced.
type Itinerary struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	BookingID     uint      `json:"booking_id" gorm:"not null;index"`
	DayNumber     int       `json:"day_number" gorm:"not null"`
	Title         string    `json:"title" gorm:"size:200;not null"`
	Description   string    `json:"description"`
	Activities    string    `json:"-"`
	Accommodation string    `json:"accommodation" gorm:"size:200"`
	Meals         string    `json:"meals" gorm:"size:200"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func SerializeItinerary(it *Itinerary) fiber.Map {
	var activities []string
	if it.Activities != "" {
		_ = json.Unmarshal([]byte(it.Activities), &activities)
	}
	if activities == nil {
		activities = []string{}
	}

	return fiber.Map{
		"id":            it.ID,
		"booking_id":    it.BookingID,
		"day_number":    it.DayNumber,
		"title":         it.Title,
		"description":   it.Description,
		"activities":    activities,
		"accommodation": it.Accommodation,
		"meals":         it.Meals,
		"created_at":    it.CreatedAt,
		"updated_at":    it.UpdatedAt,
	}
}
