package user

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/storage"
)

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

func Register(c fiber.Ctx) error {
	req := new(RegisterRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "username, email and password are required"})
	}

	var count int64
	storage.DB.Model(&User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Username already exists"})
	}

	storage.DB.Model(&User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email already exists"})
	}

	newUser := &User{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Role:        RoleEndUser,
		IsActive:    true,
	}

	if result := storage.DB.Create(newUser); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create user"})
	}

	token, err := IssueToken(newUser)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"access_token": token,
		"user":         newUser,
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(c fiber.Ctx) error {
	req := new(LoginRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "username and password are required"})
	}

	var u User
	result := storage.DB.Where("username = ?", req.Username).Limit(1).Find(&u)
	if result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}

	// unknown user and wrong password are indistinguishable
	if u.ID == 0 || !u.CheckPassword(req.Password) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	token, err := IssueToken(&u)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": token,
		"user":         u,
	})
}

func Me(c fiber.Ctx) error {
	u, err := Current(c)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"user": u})
}

type UpdateProfileRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

func UpdateProfile(c fiber.Ctx) error {
	u, err := Current(c)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Email != nil && *req.Email != u.Email {
		var count int64
		storage.DB.Model(&User{}).Where("email = ? AND id != ?", *req.Email, u.ID).Count(&count)
		if count > 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email already exists"})
		}
		u.Email = *req.Email
	}

	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}

	if result := storage.DB.Save(u); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update profile"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"user": u})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func ChangePassword(c fiber.Ctx) error {
	u, err := Current(c)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	req := new(ChangePasswordRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "current_password and new_password are required"})
	}

	if !u.CheckPassword(req.CurrentPassword) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to hash password"})
	}

	if result := storage.DB.Model(u).Update("password_hash", hashed); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to change password"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Password changed successfully"})
}
