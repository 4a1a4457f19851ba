package migrations

import (
	"kayit.link/configs/configslog"
	"kayit.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateFormsTables(db *gorm.DB) error {
	configslog.SLog.Info("Migrating forms, slots, questions & eligibility_rules tables...")
	err := db.AutoMigrate(&models.Form{}, &models.Slot{}, &models.Question{}, &models.EligibilityRule{})
	if err != nil {
		configslog.Log.Error("Failed to migrate form tables", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Form tables migrated successfully")
	return nil
}
