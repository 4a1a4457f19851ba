package configs

import (
	"time"

	"kayit.link/configs/configslog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// AppConfig uygulamanın tüm ortam değişkenlerini tek yapıda toplar.
type AppConfig struct {
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":3000"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=kayit port=5432 sslmode=disable TimeZone=UTC"`

	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`

	// Zamanlanmış yayınlama/kapatma sürücüsünün tur aralığı.
	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
}

var appConfig *AppConfig

// LoadConfig .env dosyasını (varsa) yükler ve ortam değişkenlerini parse eder.
// Birden fazla çağrı aynı örneği döndürür.
func LoadConfig() *AppConfig {
	if appConfig != nil {
		return appConfig
	}

	// .env bulunamaması hata değildir; konteyner ortamında env zaten setlidir.
	if err := godotenv.Load(); err != nil {
		configslog.SLog.Debug(".env dosyası bulunamadı, mevcut ortam değişkenleri kullanılacak")
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		configslog.Log.Fatal("Ortam değişkenleri parse edilemedi", zap.Error(err))
	}

	appConfig = cfg
	return appConfig
}

// GetConfig yüklenmiş konfigürasyonu döndürür; gerekirse yükler.
func GetConfig() *AppConfig {
	return LoadConfig()
}
