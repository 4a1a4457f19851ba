package main

import (
	"flag"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/database"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()
	migrateFlag := flag.Bool("migrate", false, "Veritabanı başlatma işlemini çalıştır (migrasyonları içerir)")
	flag.Parse()

	configs.LoadConfig()
	configs.InitDB()
	defer configs.CloseDB()

	db := configs.GetDB()

	configslog.SLog.Info("Veritabanı başlatma işlemi çalıştırılıyor...")
	database.Initialize(db, *migrateFlag)

	configslog.SLog.Info("Veritabanı başlatma işlemi tamamlandı.")
}
