package main

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nomadiclabs/tripway/admin"
	"github.com/nomadiclabs/tripway/booking"
	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/config"
	"github.com/nomadiclabs/tripway/jwtware"
	"github.com/nomadiclabs/tripway/payment"
	"github.com/nomadiclabs/tripway/review"
	"github.com/nomadiclabs/tripway/user"
	"github.com/nomadiclabs/tripway/wishlist"
)

func requireAuth() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(config.C.JWTSecret), JWTAlg: jwt.SigningMethodHS256.Alg()},
	})
}

func adminOnly(c fiber.Ctx) error {
	userToken := c.Locals("user").(*jwt.Token)
	claims := userToken.Claims.(jwt.MapClaims)
	role, _ := claims["role"].(string)

	if !user.IsAdmin(user.Role(role)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	}

	return c.Next()
}

func authRoutes(r fiber.Router) {
	r.Post("/register", user.Register)
	r.Post("/login", user.Login)

	r.Use(requireAuth())
	r.Get("/me", user.Me)
	r.Put("/profile", user.UpdateProfile)
	r.Post("/change-password", user.ChangePassword)
}

// packageRoutes keeps browsing public; destinations must register before the
// :id route or Fiber swallows it as a package id.
func packageRoutes(r fiber.Router) {
	r.Get("", catalog.List)
	r.Get("/destinations", catalog.Destinations)
	r.Get("/:id", catalog.Get)

	r.Use(requireAuth())
	r.Post("", catalog.Create)
	r.Put("/:id", catalog.Update)
	r.Delete("/:id", catalog.Delete)
	r.Post("/:id/images", catalog.UploadImage)
}

func bookingRoutes(r fiber.Router) {
	r.Use(requireAuth())
	r.Post("", booking.Create)
	r.Get("", booking.ListMine)
	r.Get("/all", booking.ListAll)
	r.Get("/:id", booking.Get)
	r.Put("/:id", booking.Update)
	r.Post("/:id/cancel", booking.Cancel)
}

func itineraryRoutes(r fiber.Router) {
	r.Use(requireAuth())
	r.Get("/booking/:bookingId", booking.ListItineraries)
	r.Post("/booking/:bookingId", booking.CreateItinerary)
	r.Put("/:id", booking.UpdateItinerary)
	r.Delete("/:id", booking.DeleteItinerary)
}

// reviewRoutes keeps reads public; /user must register before /:id or it is
// swallowed as a review id.
func reviewRoutes(r fiber.Router) {
	r.Get("/package/:packageId", review.ListByPackage)
	r.Get("/user", review.ListMine, requireAuth())
	r.Get("/:id", review.Get)

	r.Use(requireAuth())
	r.Post("", review.Create)
	r.Put("/:id", review.Update)
	r.Delete("/:id", review.Delete)
}

func paymentRoutes(r fiber.Router) {
	r.Use(requireAuth())
	r.Post("/create-order", payment.CreateOrder)
	r.Post("/verify", payment.Verify)
	r.Post("/refund", payment.Refund)
	r.Get("/all", payment.ListAll)
	r.Get("/booking/:bookingId", payment.ListForBooking)
	r.Get("/status/:id", payment.GetStatus)
}

func wishlistRoutes(r fiber.Router) {
	r.Use(requireAuth())
	r.Get("", wishlist.List)
	r.Post("", wishlist.Add)
	r.Delete("/:packageId", wishlist.Remove)
}

func adminRoutes(r fiber.Router) {
	r.Use(requireAuth())
	r.Use(adminOnly)

	r.Get("/users", admin.ListUsers)
	r.Get("/users/:id", admin.GetUser)
	r.Put("/users/:id", admin.UpdateUser)
	r.Post("/users/:id/activate", admin.ActivateUser)
	r.Post("/users/:id/deactivate", admin.DeactivateUser)

	r.Get("/bookings", admin.ListBookings)
	r.Get("/bookings/export", admin.ExportBookings)
	r.Put("/bookings/:id/status", admin.UpdateBookingStatus)

	r.Get("/reviews", admin.ListReviews)
	r.Get("/stats", admin.Stats)
}
