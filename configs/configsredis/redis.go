package configsredis

import (
	"context"
	"time"

	"kayit.link/configs"
	"kayit.link/configs/configslog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var client *redis.Client

// InitRedis REDIS_ENABLED=true ise bağlantıyı kurar. Redis yoksa uygulama
// önbelleksiz çalışmaya devam eder; bu bir hata değildir.
func InitRedis() {
	cfg := configs.GetConfig()
	if !cfg.RedisEnabled {
		configslog.SLog.Info("Redis devre dışı, form önbelleği kullanılmayacak")
		return
	}

	client = redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		configslog.Log.Warn("Redis bağlantısı kurulamadı, önbelleksiz devam ediliyor", zap.Error(err))
		client = nil
		return
	}
	configslog.SLog.Info("Redis bağlantısı kuruldu")
}

// GetRedis bağlı istemciyi döndürür; Redis devre dışı veya erişilemezse nil.
func GetRedis() *redis.Client {
	return client
}

// CloseRedis bağlantıyı kapatır.
func CloseRedis() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		configslog.Log.Error("Redis bağlantısı kapatılamadı", zap.Error(err))
	}
	client = nil
}
