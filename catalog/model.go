package catalog

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Package is a purchasable travel offering with a price and availability window.
// Includes, Excludes and Images are stored as JSON-encoded text columns.
type Package struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	Title         string    `json:"title" gorm:"size:200;not null"`
	Description   string    `json:"description"`
	Destination   string    `json:"destination" gorm:"size:100;not null"`
	DurationDays  int       `json:"duration_days" gorm:"not null"`
	Price         float64   `json:"price" gorm:"not null"`
	MaxTravelers  int       `json:"max_travelers" gorm:"not null"`
	AvailableFrom time.Time `json:"-" gorm:"type:date;not null"`
	AvailableTo   time.Time `json:"-" gorm:"type:date;not null"`
	Includes      string    `json:"-"`
	Excludes      string    `json:"-"`
	Images        string    `json:"-"`
	IsActive      bool      `json:"is_active" gorm:"default:true;not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Package) TableName() string {
	return "travel_packages"
}

// Serialize renders a package for the wire: date-only availability bounds and
// decoded string lists.
func Serialize(p *Package) fiber.Map {
	return fiber.Map{
		"id":             p.ID,
		"title":          p.Title,
		"description":    p.Description,
		"destination":    p.Destination,
		"duration_days":  p.DurationDays,
		"price":          p.Price,
		"max_travelers":  p.MaxTravelers,
		"available_from": p.AvailableFrom.Format(time.DateOnly),
		"available_to":   p.AvailableTo.Format(time.DateOnly),
		"includes":       decodeList(p.Includes),
		"excludes":       decodeList(p.Excludes),
		"images":         decodeList(p.Images),
		"is_active":      p.IsActive,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
}

func decodeList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	return list
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	encoded, _ := json.Marshal(list)
	return string(encoded)
}
