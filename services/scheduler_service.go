package services

import (
	"context"
	"sync"
	"time"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/configs/configsredis"
	"kayit.link/models"
	"kayit.link/pkg/formcache"
	"kayit.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ISchedulerService zamanlanmış yayınlama/kapatma geçişlerinin
// sürücüsüdür. İstek işlemeden bağımsız, süreç başına tek görev olarak
// çalışır. Teslimat at-least-once'tır; auto_open/auto_close bayraklarını
// durumla birlikte yazan korumalı update sayesinde uygulama exactly-once
// olur. "Geçiş uygulandı mı" bilgisi depoda yaşar, bellekte değil:
// yeniden başlatma sonrası geçiş tekrar ateşlenemez.
type ISchedulerService interface {
	Start()
	Stop()
	TickScheduledTransitions(ctx context.Context) ([]models.Form, error)
}

// SchedulerService ISchedulerService arayüzünü uygular.
type SchedulerService struct {
	db       *gorm.DB
	cache    formcache.IFormCache
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSchedulerService global bağlantı ve konfigüre edilmiş tur aralığıyla
// sürücü oluşturur.
func NewSchedulerService() ISchedulerService {
	return NewSchedulerServiceWithDB(
		configs.GetDB(),
		formcache.NewRedisFormCache(configsredis.GetRedis()),
		configs.GetConfig().SchedulerInterval,
	)
}

// NewSchedulerServiceWithDB verilen bağımlılıklarla sürücü oluşturur.
func NewSchedulerServiceWithDB(db *gorm.DB, cache formcache.IFormCache, interval time.Duration) ISchedulerService {
	if cache == nil {
		cache = formcache.NoopFormCache{}
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &SchedulerService{db: db, cache: cache, interval: interval}
}

// Start sürücü görevini başlatır. Tekrarlı çağrılar etkisizdir.
func (s *SchedulerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
	configslog.SLog.Infof("Zamanlanmış geçiş sürücüsü başlatıldı (aralık: %s)", s.interval)
}

// Stop görevi durdurur ve çalışan turun bitmesini bekler.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	configslog.SLog.Info("Zamanlanmış geçiş sürücüsü durduruldu")
}

func (s *SchedulerService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Bir turun hatası süreci düşürmez; kaçan tur kendi kendini
			// iyileştirir, bir sonraki turda yeniden denenir.
			if _, err := s.TickScheduledTransitions(ctx); err != nil {
				configslog.Log.Error("Zamanlanmış geçiş turu başarısız", zap.Error(err))
			}
		}
	}
}

// TickScheduledTransitions tek bir tur çalıştırır: zamanı gelmiş
// DRAFT -> OPEN ve OPEN -> CLOSED geçişlerini uygular ve geçiş yapan
// formları döndürür. Arka arkaya iki çağrı aynı son durumu üretir;
// bayrak koruması ikinci çağrıda sıfır satır etkiler.
func (s *SchedulerService) TickScheduledTransitions(ctx context.Context) ([]models.Form, error) {
	repo := repositories.NewFormRepositoryTx(s.db)
	now := nowFunc()

	var transitioned []models.Form

	duePublish, err := repo.FindDuePublish(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, form := range duePublish {
		won, err := repo.MarkAutoOpened(ctx, form.ID)
		if err != nil {
			configslog.Log.Error("Otomatik yayınlama uygulanamadı", zap.Uint("form_id", form.ID), zap.Error(err))
			continue
		}
		if !won {
			continue
		}
		form.Status = models.FormStatusOpen
		form.AutoOpen = true
		transitioned = append(transitioned, form)
		configslog.SLog.Infof("Form otomatik yayına alındı: ID %d (%s)", form.ID, form.Title)
	}

	dueClose, err := repo.FindDueClose(ctx, now)
	if err != nil {
		return transitioned, err
	}
	for _, form := range dueClose {
		won, err := repo.MarkAutoClosed(ctx, form.ID)
		if err != nil {
			configslog.Log.Error("Otomatik kapatma uygulanamadı", zap.Uint("form_id", form.ID), zap.Error(err))
			continue
		}
		if !won {
			continue
		}
		form.Status = models.FormStatusClosed
		form.AutoClose = true
		transitioned = append(transitioned, form)
		configslog.SLog.Infof("Form otomatik kapatıldı: ID %d (%s)", form.ID, form.Title)
	}

	// Önbellek geçersiz kılma best-effort'tur; önbelleğin yokluğu veya
	// hatası geçişi geri almaz.
	for _, form := range transitioned {
		s.cache.Invalidate(ctx, form.ID)
	}

	return transitioned, nil
}

var _ ISchedulerService = (*SchedulerService)(nil)
