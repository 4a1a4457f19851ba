package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/configs/configsredis"
	"kayit.link/database"
	"kayit.link/routes"
	"kayit.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	migrateFlag := flag.Bool("migrate", false, "Başlangıçta veritabanı migrasyonlarını çalıştır")
	flag.Parse()

	cfg := configs.LoadConfig()

	configs.InitDB()
	defer configs.CloseDB()

	configsredis.InitRedis()
	defer configsredis.CloseRedis()

	if *migrateFlag {
		database.Initialize(configs.GetDB(), true)
	}

	scheduler := services.NewSchedulerService()
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "kayit.link",
		DisableStartupMessage: cfg.AppEnv == "production",
	})

	routes.SetupRoutes(app)

	// Sinyal geldiğinde açık istekler tamamlanana kadar beklenir.
	shutdownDone := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		configslog.SLog.Infof("Kapatma sinyali alındı: %s", sig)
		if err := app.Shutdown(); err != nil {
			configslog.Log.Error("Sunucu kapatılırken hata oluştu", zap.Error(err))
		}
		close(shutdownDone)
	}()

	configslog.SLog.Infof("Sunucu dinlemede: %s", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		configslog.Log.Fatal("Sunucu başlatılamadı", zap.Error(err))
	}

	<-shutdownDone
	configslog.SLog.Info("Sunucu kapatıldı")
}
