package storage

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("connected to db")

	DB = db
	return db, nil
}

// Paginate is a gorm scope applying page/per_page windowing.
func Paginate(page, perPage int) func(*gorm.DB) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * perPage).Limit(perPage)
	}
}

// Pages returns the number of pages needed for total rows at the given page size.
func Pages(total int64, perPage int) int {
	if perPage < 1 {
		perPage = 10
	}
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return pages
}
