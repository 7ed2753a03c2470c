package database

import (
	"fmt"

	"ladderbot/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ReadOnlyDB serves candle reads for the price channel.
// The database user for a dedicated connection should have SELECT-only permissions.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB opens DATABASE_URL_READONLY, or reuses MainDB when it is empty.
// It does not run any migrations and should only be used for reading data.
func InitReadOnlyDB() error {
	config := GetConfig()

	if config.DatabaseURLReadOnly == "" {
		if MainDB == nil {
			return fmt.Errorf("read-only database not configured and MainDB not initialized")
		}
		ReadOnlyDB = MainDB
		logrus.Info("[ReadOnlyDB] DATABASE_URL_READONLY empty, reading candles from MainDB")
		return nil
	}

	dialector, err := Dialector(config.Driver, config.DatabaseURLReadOnly)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector,
		&gorm.Config{
			PrepareStmt:    true,
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to connect to read-only database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	var count int64
	if err := db.Model(&model.Candle1m{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access candles_1m: %w", err)
	}

	logrus.WithFields(map[string]interface{}{"count": count}).Info("[ReadOnlyDB] candles_1m reachable")

	ReadOnlyDB = db

	return nil
}
