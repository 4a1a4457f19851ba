package repositories

import (
	"context"
	"errors"

	"kayit.link/configs"
	"kayit.link/configs/configslog"
	"kayit.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ISlotRepository slot veritabanı işlemleri için arayüz.
// Reserve/Release sayacı yalnızca korumalı update ile değiştirir.
type ISlotRepository interface {
	Create(ctx context.Context, slot *models.Slot) error
	FindByID(ctx context.Context, id uint) (*models.Slot, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Slot, error)
	FindByFormID(ctx context.Context, formID uint) ([]models.Slot, error)
	Reserve(ctx context.Context, id uint) (bool, error)
	Release(ctx context.Context, id uint) error
	Delete(ctx context.Context, slot *models.Slot) error
}

// SlotRepository ISlotRepository arayüzünü uygular.
type SlotRepository struct {
	db   *gorm.DB
	base IBaseRepository[models.Slot]
}

// NewSlotRepository global bağlantıyla yeni bir SlotRepository oluşturur.
func NewSlotRepository() ISlotRepository {
	return NewSlotRepositoryTx(configs.GetDB())
}

// NewSlotRepositoryTx verilen transaction/bağlantı ile repository oluşturur.
func NewSlotRepositoryTx(tx *gorm.DB) ISlotRepository {
	base := NewBaseRepository[models.Slot](tx)
	base.SetAllowedSortColumns([]string{"id", "slot_date", "start_time"})
	return &SlotRepository{db: tx, base: base}
}

func (r *SlotRepository) getDB(ctx context.Context) *gorm.DB {
	return dbWithContext(ctx, r.db)
}

// Create yeni bir slot ekler.
func (r *SlotRepository) Create(ctx context.Context, slot *models.Slot) error {
	if slot == nil || slot.FormID == 0 {
		return errors.New("geçersiz veya formu eksik slot oluşturulamaz")
	}
	return r.getDB(ctx).Create(slot).Error
}

// FindByID slotu bulur.
func (r *SlotRepository) FindByID(ctx context.Context, id uint) (*models.Slot, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var slot models.Slot
	err := r.getDB(ctx).First(&slot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("SlotRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &slot, nil
}

// FindByIDForUpdate slot satırını münhasır kilitle alır. Kilit sırası
// gereği form kilidi alınmadan çağrılmamalıdır.
func (r *SlotRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Slot, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var slot models.Slot
	err := lockForUpdate(r.getDB(ctx)).First(&slot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("SlotRepository.FindByIDForUpdate: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &slot, nil
}

// FindByFormID formun slotlarını tarih/saat sırasıyla döndürür.
func (r *SlotRepository) FindByFormID(ctx context.Context, formID uint) ([]models.Slot, error) {
	var slots []models.Slot
	err := r.getDB(ctx).Where("form_id = ?", formID).Order("slot_date, start_time").Find(&slots).Error
	if err != nil {
		configslog.Log.Error("SlotRepository.FindByFormID: DB error", zap.Uint("form_id", formID), zap.Error(err))
		return nil, err
	}
	return slots, nil
}

// Reserve kontenjanı tek statement içinde hem kontrol eder hem artırır.
// Koşul sağlanmazsa satır etkilenmez ve false döner; oku-sonra-yaz
// yarışı bu yüzden imkânsızdır.
func (r *SlotRepository) Reserve(ctx context.Context, id uint) (bool, error) {
	result := r.getDB(ctx).Model(&models.Slot{}).
		Where("id = ? AND current_bookings < max_capacity", id).
		UpdateColumn("current_bookings", gorm.Expr("current_bookings + 1"))
	if result.Error != nil {
		configslog.Log.Error("SlotRepository.Reserve: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release sayacı azaltır, sıfırın altına inmez. Çifte bırakma koruması
// çağıranın Response varlık kontrolüne dayanır.
func (r *SlotRepository) Release(ctx context.Context, id uint) error {
	result := r.getDB(ctx).Model(&models.Slot{}).
		Where("id = ? AND current_bookings > 0", id).
		UpdateColumn("current_bookings", gorm.Expr("current_bookings - 1"))
	if result.Error != nil {
		configslog.Log.Error("SlotRepository.Release: DB error", zap.Uint("id", id), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

// Delete slotu siler (yalnızca DRAFT formlarda, servis doğrular).
func (r *SlotRepository) Delete(ctx context.Context, slot *models.Slot) error {
	if slot == nil || slot.ID == 0 {
		return errors.New("silinecek slot geçerli değil")
	}
	return r.getDB(ctx).Delete(slot).Error
}

var _ ISlotRepository = (*SlotRepository)(nil)
