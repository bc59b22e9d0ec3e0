package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEndUser     Role = "end_user"
	RoleTravelAgent Role = "travel_agent"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEndUser, RoleTravelAgent, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may manage packages and bookings.
func IsStaff(r Role) bool {
	return r == RoleAdmin || r == RoleTravelAgent
}

func IsAdmin(r Role) bool {
	return r == RoleAdmin
}

type User struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Username    string    `json:"username" gorm:"uniqueIndex;size:80;not null"`
	Email       string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	PhoneNumber string    `json:"phone_number" gorm:"size:20"`
	Password    string    `json:"-" gorm:"column:password_hash;size:255;not null"`
	Role        Role      `json:"role" gorm:"size:20;default:end_user;not null"`
	IsActive    bool      `json:"is_active" gorm:"default:true;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.Role == "" {
		u.Role = RoleEndUser
	}
	u.Password, err = HashPassword(u.Password)
	return
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
