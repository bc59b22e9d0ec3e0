package catalog

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

// ratingFor recomputes the review aggregate for a package on every call.
func ratingFor(packageID uint) (float64, int64) {
	var agg struct {
		Avg   float64
		Count int64
	}
	storage.DB.Raw(
		"SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count FROM reviews WHERE package_id = ?",
		packageID,
	).Scan(&agg)
	return math.Round(agg.Avg*10) / 10, agg.Count
}

func annotated(p *Package) fiber.Map {
	avg, count := ratingFor(p.ID)
	out := Serialize(p)
	out["average_rating"] = avg
	out["total_reviews"] = count
	return out
}

func List(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	query := storage.DB.Model(&Package{}).Where("is_active = ?", true)

	if destination := c.Query("destination"); destination != "" {
		query = query.Where("destination LIKE ?", "%"+destination+"%")
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		v, err := strconv.ParseFloat(minPrice, 64)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid min_price"})
		}
		query = query.Where("price >= ?", v)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		v, err := strconv.ParseFloat(maxPrice, 64)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid max_price"})
		}
		query = query.Where("price <= ?", v)
	}
	if duration := c.Query("duration"); duration != "" {
		v, err := strconv.Atoi(duration)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid duration"})
		}
		query = query.Where("duration_days = ?", v)
	}
	if from := c.Query("available_from"); from != "" {
		d, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid available_from date format. Use YYYY-MM-DD"})
		}
		query = query.Where("available_from <= ?", d)
	}
	if to := c.Query("available_to"); to != "" {
		d, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid available_to date format. Use YYYY-MM-DD"})
		}
		query = query.Where("available_to >= ?", d)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list packages"})
	}

	var packages []Package
	if result := query.Scopes(storage.Paginate(page, perPage)).Find(&packages); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list packages"})
	}

	list := make([]fiber.Map, 0, len(packages))
	for i := range packages {
		list = append(list, annotated(&packages[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"packages":     list,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}

func Get(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid package id"})
	}

	var p Package
	storage.DB.Limit(1).Find(&p, id)
	if p.ID == 0 || !p.IsActive {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	out := annotated(&p)

	var rows []struct {
		ID        uint
		UserID    uint
		Rating    int
		Comment   string
		CreatedAt time.Time
		Username  string
	}
	storage.DB.Raw(
		"SELECT r.id, r.user_id, r.rating, r.comment, r.created_at, u.username FROM reviews r LEFT JOIN users u ON u.id = r.user_id WHERE r.package_id = ?",
		p.ID,
	).Scan(&rows)

	reviews := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		reviews = append(reviews, fiber.Map{
			"id":         r.ID,
			"user_id":    r.UserID,
			"rating":     r.Rating,
			"comment":    r.Comment,
			"created_at": r.CreatedAt,
			"username":   r.Username,
		})
	}
	out["reviews"] = reviews

	return c.Status(http.StatusOK).JSON(fiber.Map{"package": out})
}

func Destinations(c fiber.Ctx) error {
	var destinations []string
	if result := storage.DB.Raw(
		"SELECT DISTINCT destination FROM travel_packages WHERE is_active = ?", true,
	).Scan(&destinations); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list destinations"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"destinations": destinations})
}

type PackageRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Destination   *string  `json:"destination"`
	DurationDays  *int     `json:"duration_days"`
	Price         *float64 `json:"price"`
	MaxTravelers  *int     `json:"max_travelers"`
	AvailableFrom *string  `json:"available_from"`
	AvailableTo   *string  `json:"available_to"`
	Includes      []string `json:"includes"`
	Excludes      []string `json:"excludes"`
	Images        []string `json:"images"`
	IsActive      *bool    `json:"is_active"`
}

func Create(c fiber.Ctx) error {
	usr, err := user.Current(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsStaff(usr.Role) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	req := new(PackageRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Title == nil || req.Destination == nil || req.DurationDays == nil ||
		req.Price == nil || req.MaxTravelers == nil || req.AvailableFrom == nil || req.AvailableTo == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "title, destination, duration_days, price, max_travelers, available_from and available_to are required"})
	}

	from, err := time.Parse(time.DateOnly, *req.AvailableFrom)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}
	to, err := time.Parse(time.DateOnly, *req.AvailableTo)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
	}
	if !from.Before(to) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "available_from must be before available_to"})
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	p := &Package{
		Title:         *req.Title,
		Description:   description,
		Destination:   *req.Destination,
		DurationDays:  *req.DurationDays,
		Price:         *req.Price,
		MaxTravelers:  *req.MaxTravelers,
		AvailableFrom: from,
		AvailableTo:   to,
		Includes:      encodeList(req.Includes),
		Excludes:      encodeList(req.Excludes),
		Images:        encodeList(req.Images),
		IsActive:      true,
	}

	if result := storage.DB.Create(p); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create package"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"package": Serialize(p)})
}

func Update(c fiber.Ctx) error {
	usr, err := user.Current(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsStaff(usr.Role) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid package id"})
	}

	var p Package
	storage.DB.Limit(1).Find(&p, id)
	if p.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	req := new(PackageRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Destination != nil {
		p.Destination = *req.Destination
	}
	if req.DurationDays != nil {
		p.DurationDays = *req.DurationDays
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.MaxTravelers != nil {
		p.MaxTravelers = *req.MaxTravelers
	}
	if req.AvailableFrom != nil {
		from, err := time.Parse(time.DateOnly, *req.AvailableFrom)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid available_from date format. Use YYYY-MM-DD"})
		}
		p.AvailableFrom = from
	}
	if req.AvailableTo != nil {
		to, err := time.Parse(time.DateOnly, *req.AvailableTo)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid available_to date format. Use YYYY-MM-DD"})
		}
		p.AvailableTo = to
	}
	if !p.AvailableFrom.Before(p.AvailableTo) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "available_from must be before available_to"})
	}
	if req.Includes != nil {
		p.Includes = encodeList(req.Includes)
	}
	if req.Excludes != nil {
		p.Excludes = encodeList(req.Excludes)
	}
	if req.Images != nil {
		p.Images = encodeList(req.Images)
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if result := storage.DB.Save(&p); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update package"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"package": Serialize(&p)})
}

// Delete flips the active flag; package rows are never removed.
func Delete(c fiber.Ctx) error {
	usr, err := user.Current(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsAdmin(usr.Role) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid package id"})
	}

	var p Package
	storage.DB.Limit(1).Find(&p, id)
	if p.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Package not found"})
	}

	if result := storage.DB.Model(&p).Update("is_active", false); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete package"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Package deleted successfully"})
}
