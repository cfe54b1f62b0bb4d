package config

import (
	"github.com/juju/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"foodwagen/models"
)

// InitDB opens the activity log database and migrates its schema.
func InitDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.NotSupportedf("database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Annotatef(err, "connecting to %s database", driver)
	}

	if err := db.AutoMigrate(&models.ActivityLog{}); err != nil {
		return nil, errors.Annotate(err, "migrating activity log")
	}
	logger.Infof("activity log stored in %s database", driver)
	return db, nil
}
