package review

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/user"
)

type Review struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	PackageID uint      `json:"package_id" gorm:"not null;index"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User user.User `json:"-" gorm:"foreignKey:UserID"`
}

func Serialize(r *Review) fiber.Map {
	out := fiber.Map{
		"id":         r.ID,
		"user_id":    r.UserID,
		"package_id": r.PackageID,
		"rating":     r.Rating,
		"comment":    r.Comment,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
	if r.User.ID != 0 {
		out["user"] = r.User
	}
	return out
}

func validRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
