package migrations

import (
	"kayit.link/configs/configslog"
	"kayit.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateResponsesTables(db *gorm.DB) error {
	configslog.SLog.Info("Migrating responses & response_answers tables...")
	err := db.AutoMigrate(&models.Response{}, &models.ResponseAnswer{})
	if err != nil {
		configslog.Log.Error("Failed to migrate response tables", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Response tables migrated successfully")
	return nil
}
