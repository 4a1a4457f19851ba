package services

import (
	"context"
	"errors"
	"time"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/configs/configsredis"
	"kayit.link/models"
	"kayit.link/pkg/apperrors"
	"kayit.link/pkg/formcache"
	"kayit.link/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IFormLifecycleService formun DRAFT -> OPEN -> CLOSED yaşam döngüsünü
// yönetir. Her geçiş korumalı bir koşullu update'tir; eşzamanlı iki
// denemeden yalnızca biri kazanır, kaybeden StateConflictError görür.
type IFormLifecycleService interface {
	PublishNow(ctx context.Context, formID uint) (*models.Form, error)
	SchedulePublish(ctx context.Context, formID uint, publishAt time.Time, closeAt *time.Time) (*models.Form, error)
	Close(ctx context.Context, formID uint) (*models.Form, error)
	Delete(ctx context.Context, formID uint) error
}

// FormLifecycleService IFormLifecycleService arayüzünü uygular.
type FormLifecycleService struct {
	db    *gorm.DB
	repo  repositories.IFormRepository
	cache formcache.IFormCache
}

// NewFormLifecycleService global bağlantı ve Redis önbelleğiyle servis oluşturur.
func NewFormLifecycleService() IFormLifecycleService {
	return NewFormLifecycleServiceWithDB(configs.GetDB(), formcache.NewRedisFormCache(configsredis.GetRedis()))
}

// NewFormLifecycleServiceWithDB verilen bağlantı ve önbellekle servis oluşturur.
func NewFormLifecycleServiceWithDB(db *gorm.DB, cache formcache.IFormCache) IFormLifecycleService {
	if cache == nil {
		cache = formcache.NoopFormCache{}
	}
	return &FormLifecycleService{
		db:    db,
		repo:  repositories.NewFormRepositoryTx(db),
		cache: cache,
	}
}

// resolveTransitionFailure geçişi kaybeden çağırana doğru hatayı seçer:
// form hiç yoksa NotFound, yanlış durumdaysa StateConflict.
func (s *FormLifecycleService) resolveTransitionFailure(ctx context.Context, formID uint, expected models.FormStatus) error {
	form, err := s.repo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.KindNotFound, "form bulunamadı")
		}
		return err
	}
	return apperrors.Newf(apperrors.KindStateConflict,
		"form %s durumunda değil (mevcut durum: %s)", string(expected), string(form.Status))
}

// PublishNow formu hemen yayına alır. Yalnızca DRAFT durumundan çağrılabilir.
func (s *FormLifecycleService) PublishNow(ctx context.Context, formID uint) (*models.Form, error) {
	ok, err := s.repo.UpdateStatusIf(ctx, formID, models.FormStatusDraft, models.FormStatusOpen)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.resolveTransitionFailure(ctx, formID, models.FormStatusDraft)
	}

	s.cache.Invalidate(ctx, formID)
	configslog.SLog.Infof("Form yayına alındı: ID %d", formID)
	return s.repo.FindByID(ctx, formID)
}

// SchedulePublish yayınlama (ve isteğe bağlı kapanma) anını zamanlar.
// publishAt geçmişteyse hemen yayınlamaya düşer. closeAt verilmişse
// publishAt'ten kesinlikle sonra olmalıdır.
func (s *FormLifecycleService) SchedulePublish(ctx context.Context, formID uint, publishAt time.Time, closeAt *time.Time) (*models.Form, error) {
	if publishAt.IsZero() {
		return nil, apperrors.New(apperrors.KindValidation, "yayınlama zamanı zorunludur")
	}
	if closeAt != nil && !closeAt.After(publishAt) {
		return nil, apperrors.New(apperrors.KindValidation, "kapanma zamanı yayınlama zamanından sonra olmalıdır")
	}

	if !publishAt.After(nowFunc()) {
		return s.PublishNow(ctx, formID)
	}

	ok, err := s.repo.SetSchedule(ctx, formID, publishAt.UTC(), closeAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.resolveTransitionFailure(ctx, formID, models.FormStatusDraft)
	}

	s.cache.Invalidate(ctx, formID)
	configslog.SLog.Infof("Form zamanlandı: ID %d, yayın %s", formID, publishAt.UTC().Format(time.RFC3339))
	return s.repo.FindByID(ctx, formID)
}

// Close açık formu kapatır. Yalnızca OPEN durumundan çağrılabilir; CLOSED
// son duraktır, geri dönüş yoktur.
func (s *FormLifecycleService) Close(ctx context.Context, formID uint) (*models.Form, error) {
	ok, err := s.repo.UpdateStatusIf(ctx, formID, models.FormStatusOpen, models.FormStatusClosed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.resolveTransitionFailure(ctx, formID, models.FormStatusOpen)
	}

	s.cache.Invalidate(ctx, formID)
	configslog.SLog.Infof("Form kapatıldı: ID %d", formID)
	return s.repo.FindByID(ctx, formID)
}

// Delete DRAFT formdaki formu slotları, soruları ve kurallarıyla birlikte
// siler. Yayınlanmış form silinemez.
func (s *FormLifecycleService) Delete(ctx context.Context, formID uint) error {
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		repoTx := repositories.NewFormRepositoryTx(tx)

		form, err := repoTx.FindByIDForUpdate(ctx, formID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.New(apperrors.KindNotFound, "form bulunamadı")
			}
			return err
		}
		if form.Status != models.FormStatusDraft {
			return apperrors.New(apperrors.KindStateConflict, "yalnızca taslak formlar silinebilir")
		}

		return repoTx.DeleteDraftCascade(ctx, form)
	})
	if txErr != nil {
		if apperrors.KindOf(txErr) == "" {
			configslog.Log.Error("Delete form transaction failed", zap.Uint("form_id", formID), zap.Error(txErr))
		}
		return txErr
	}

	s.cache.Invalidate(ctx, formID)
	configslog.SLog.Infof("Form silindi: ID %d", formID)
	return nil
}

var _ IFormLifecycleService = (*FormLifecycleService)(nil)
