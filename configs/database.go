package configs

import (
	"time"

	"kayit.link/configs/configslog"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB PostgreSQL bağlantısını kurar ve bağlantı havuzunu ayarlar.
func InitDB() {
	cfg := GetConfig()

	gormLogLevel := gormlogger.Warn
	if cfg.AppEnv == "development" {
		gormLogLevel = gormlogger.Info
	}

	var err error
	db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
		// Unique ihlalleri gorm.ErrDuplicatedKey olarak yakalanır;
		// başvuru tekilliği buna dayanır.
		TranslateError: true,
	})
	if err != nil {
		configslog.Log.Fatal("Veritabanı bağlantısı kurulamadı", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		configslog.Log.Fatal("Veritabanı havuzuna erişilemedi", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	configslog.SLog.Info("Veritabanı bağlantısı kuruldu")
}

// GetDB global GORM bağlantısını döndürür.
func GetDB() *gorm.DB {
	return db
}

// SetDB test veya özel bootstrap senaryolarında bağlantıyı dışarıdan verir.
func SetDB(database *gorm.DB) {
	db = database
}

// CloseDB bağlantı havuzunu kapatır.
func CloseDB() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		configslog.Log.Error("Veritabanı kapatılırken havuza erişilemedi", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		configslog.Log.Error("Veritabanı bağlantısı kapatılamadı", zap.Error(err))
	}
}
