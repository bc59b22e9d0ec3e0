package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/xuri/excelize/v2"

	"github.com/nomadiclabs/tripway/storage"
)

type exportRow struct {
	BookingID    uint
	Username     string
	Email        string
	PackageTitle string
	Destination  string
	BookingDate  string
	Travelers    int
	TotalAmount  float64
	Status       string
	CreatedAt    string
}

// ExportBookings writes the booking ledger to an xlsx sheet. Optional from/to
// query params (YYYY-MM-DD) bound the booking_date range.
func ExportBookings(c fiber.Ctx) error {
	query := `
		SELECT b.id AS booking_id, u.username, u.email,
		       p.title AS package_title, p.destination,
		       b.booking_date, b.number_of_travelers AS travelers,
		       b.total_amount, b.status, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN travel_packages p ON p.id = b.package_id`

	var args []interface{}
	where := ""

	if from := c.Query("from"); from != "" {
		if _, err := time.Parse(time.DateOnly, from); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date. Use YYYY-MM-DD"})
		}
		where = " WHERE b.booking_date >= ?"
		args = append(args, from)
	}
	if to := c.Query("to"); to != "" {
		if _, err := time.Parse(time.DateOnly, to); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date. Use YYYY-MM-DD"})
		}
		if where == "" {
			where = " WHERE b.booking_date <= ?"
		} else {
			where += " AND b.booking_date <= ?"
		}
		args = append(args, to)
	}

	var results []exportRow
	if result := storage.DB.Raw(query+where+" ORDER BY b.created_at", args...).Scan(&results); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to export bookings"})
	}

	f := excelize.NewFile()
	sheet := "Bookings"
	f.NewSheet(sheet)

	headers := []string{
		"BookingID", "Username", "Email", "Package", "Destination",
		"BookingDate", "Travelers", "TotalAmount", "Status", "CreatedAt",
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, result := range results {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), result.BookingID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), result.Username)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), result.Email)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), result.PackageTitle)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), result.Destination)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), result.BookingDate)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", i+2), result.Travelers)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", i+2), result.TotalAmount)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", i+2), result.Status)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", i+2), result.CreatedAt)
	}

	filePath := "bookings_export.xlsx"
	if err := f.SaveAs(filePath); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to generate Excel file",
		})
	}

	return c.Download(filePath)
}
