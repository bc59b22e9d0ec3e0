package main

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/nomadiclabs/tripway/booking"
	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/config"
	"github.com/nomadiclabs/tripway/payment"
	"github.com/nomadiclabs/tripway/review"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
	"github.com/nomadiclabs/tripway/wishlist"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	db, err := storage.ConnectDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	err = db.AutoMigrate(
		&user.User{},
		&catalog.Package{},
		&booking.Booking{},
		&booking.Itinerary{},
		&review.Review{},
		&payment.Payment{},
		&wishlist.Entry{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	if err = seedDB(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		payment.Gateway = payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		log.Warn().Msg("razorpay keys not set, payment endpoints disabled")
	}

	if cfg.CloudinaryURL != "" {
		uploader, err := catalog.NewCloudinaryUploader(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise cloudinary")
		}
		catalog.Uploader = uploader
	} else {
		log.Warn().Msg("cloudinary url not set, image uploads disabled")
	}

	app := fiber.New(fiber.Config{AppName: "TRIPWAY"})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	api.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	authRoutes(api.Group("/auth"))
	packageRoutes(api.Group("/packages"))
	bookingRoutes(api.Group("/bookings"))
	itineraryRoutes(api.Group("/itineraries"))
	reviewRoutes(api.Group("/reviews"))
	paymentRoutes(api.Group("/payments"))
	wishlistRoutes(api.Group("/wishlist"))
	adminRoutes(api.Group("/admin"))

	if err = app.Listen(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// seedDB creates the default admin account and, on an empty catalog, a pair of
// sample packages. Safe to run on every boot.
func seedDB(db *gorm.DB) error {
	var existing user.User
	result := db.Where("username = ?", "admin").First(&existing)

	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}

	if result.Error == gorm.ErrRecordNotFound {
		adminUser := user.User{
			Username: "admin",
			Email:    "admin@tripway.com",
			Password: "admin123",
			Role:     user.RoleAdmin,
			IsActive: true,
		}
		if err := db.Create(&adminUser).Error; err != nil {
			return err
		}
		log.Info().Msg("admin user seeded")
	}

	var packages int64
	if err := db.Model(&catalog.Package{}).Count(&packages).Error; err != nil {
		return err
	}
	if packages > 0 {
		return nil
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	samples := []catalog.Package{
		{
			Title:         "Goa Beach Getaway",
			Description:   "Five days of beaches, seafood and old Portuguese quarters.",
			Destination:   "Goa",
			DurationDays:  5,
			Price:         15000,
			MaxTravelers:  20,
			AvailableFrom: now,
			AvailableTo:   now.AddDate(1, 0, 0),
			Includes:      `["Accommodation","Breakfast","Airport transfers"]`,
			Excludes:      `["Flights","Lunch and dinner"]`,
			IsActive:      true,
		},
		{
			Title:         "Himalayan Trek",
			Description:   "A guided week through the Kullu valley with camping gear provided.",
			Destination:   "Manali",
			DurationDays:  7,
			Price:         22000,
			MaxTravelers:  12,
			AvailableFrom: now,
			AvailableTo:   now.AddDate(0, 8, 0),
			Includes:      `["Guide","Camping equipment","All meals"]`,
			Excludes:      `["Travel insurance","Personal gear"]`,
			IsActive:      true,
		},
	}
	if err := db.Create(&samples).Error; err != nil {
		return err
	}
	log.Info().Int("count", len(samples)).Msg("sample packages seeded")
	return nil
}
