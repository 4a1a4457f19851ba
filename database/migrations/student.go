package migrations

import (
	"kayit.link/configs/configslog"
	"kayit.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateStudentsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating students table...")
	err := db.AutoMigrate(&models.Student{})
	if err != nil {
		configslog.Log.Error("Failed to migrate students table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Students table migrated successfully")
	return nil
}
