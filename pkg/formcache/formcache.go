package formcache

import (
	"context"
	"fmt"
	"time"

	"kayit.link/configs/configslog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IFormCache form okuma yollarının kullandığı, yetkili OLMAYAN önbellektir.
// Yaşam döngüsü geçişlerinde içerik asla güncellenmez, yalnızca geçersiz
// kılınır. Tüm metodlar best-effort çalışır; önbellek hatası çağıranın
// işlemini asla bozmamalıdır.
type IFormCache interface {
	GetFormDetail(ctx context.Context, formID uint) ([]byte, bool)
	SetFormDetail(ctx context.Context, formID uint, payload []byte)
	Invalidate(ctx context.Context, formID uint)
}

const detailTTL = 5 * time.Minute

func detailKey(formID uint) string {
	return fmt.Sprintf("form:%d:detail", formID)
}

// RedisFormCache IFormCache'i go-redis üzerinde uygular.
type RedisFormCache struct {
	client *redis.Client
}

// NewRedisFormCache verilen istemciyle önbellek oluşturur. İstemci nil ise
// no-op önbellek döndürülür; Redis'in yokluğu bir çalışma modudur, hata değil.
func NewRedisFormCache(client *redis.Client) IFormCache {
	if client == nil {
		return NoopFormCache{}
	}
	return &RedisFormCache{client: client}
}

func (c *RedisFormCache) GetFormDetail(ctx context.Context, formID uint) ([]byte, bool) {
	val, err := c.client.Get(ctx, detailKey(formID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			configslog.Log.Warn("Form önbelleği okunamadı", zap.Uint("form_id", formID), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

func (c *RedisFormCache) SetFormDetail(ctx context.Context, formID uint, payload []byte) {
	if err := c.client.Set(ctx, detailKey(formID), payload, detailTTL).Err(); err != nil {
		configslog.Log.Warn("Form önbelleğine yazılamadı", zap.Uint("form_id", formID), zap.Error(err))
	}
}

// Invalidate form:{id}:* desenindeki tüm anahtarları siler.
func (c *RedisFormCache) Invalidate(ctx context.Context, formID uint) {
	pattern := fmt.Sprintf("form:%d:*", formID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		configslog.Log.Warn("Form önbelleği taranamadı", zap.Uint("form_id", formID), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		configslog.Log.Warn("Form önbelleği temizlenemedi", zap.Uint("form_id", formID), zap.Error(err))
	}
}

// NoopFormCache Redis yapılandırılmadığında kullanılan boş uygulamadır.
type NoopFormCache struct{}

func (NoopFormCache) GetFormDetail(ctx context.Context, formID uint) ([]byte, bool) {
	return nil, false
}

func (NoopFormCache) SetFormDetail(ctx context.Context, formID uint, payload []byte) {}

func (NoopFormCache) Invalidate(ctx context.Context, formID uint) {}

var _ IFormCache = (*RedisFormCache)(nil)
var _ IFormCache = NoopFormCache{}
