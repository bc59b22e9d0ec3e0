package wishlist

import (
	"time"

	"github.com/nomadiclabs/tripway/catalog"
)

// Entry is a user's saved package. At most one entry per (user, package)
// pair, enforced by lookup before create.
type Entry struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	PackageID uint      `json:"package_id" gorm:"not null;index"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`

	Package catalog.Package `json:"-" gorm:"foreignKey:PackageID"`
}

func (Entry) TableName() string {
	return "wishlist"
}
